package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestRecovery(t *testing.T) {
	h := &htlctest.Handler{Panic: "boom"}
	r := NewRecovery()

	var buf bytes.Buffer
	logger := log.NewTMLogger(log.NewSyncWriter(&buf))
	ctx := htlc.WithLogger(context.Background(), logger)
	db := store.MemStore()
	tx := &htlctest.Tx{Msg: &htlctest.Msg{RoutePath: "aswap/redeem"}}

	// Panic handler panics. Test the test tool.
	assert.Panics(t, func() { h.Check(ctx, db, tx) })
	assert.Panics(t, func() { h.Deliver(ctx, db, tx) })

	_, err := r.Check(ctx, db, tx, h)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.True(t, strings.Contains(err.Error(), "check aswap/redeem: boom"), err.Error())

	buf.Reset()
	_, err = r.Deliver(ctx, db, tx, h)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.True(t, strings.Contains(err.Error(), "deliver aswap/redeem: boom"), err.Error())
	out := buf.String()
	assert.True(t, strings.Contains(out, "handler panic"), out)
	assert.True(t, strings.Contains(out, "aswap/redeem"), out)

	// A transaction without a message still fails cleanly.
	_, err = r.Deliver(ctx, db, &htlctest.Tx{}, h)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.True(t, strings.Contains(err.Error(), "(missing)"), err.Error())

	// Without a panic the result is passed through and nothing is logged.
	buf.Reset()
	ok := &htlctest.Handler{DeliverResult: htlc.DeliverResult{Log: "fine"}}
	res, err := r.Deliver(ctx, db, tx, ok)
	require.NoError(t, err)
	assert.Equal(t, "fine", res.Log)
	assert.Empty(t, buf.String())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewTMLogger(log.NewSyncWriter(&buf))
	ctx := htlc.WithLogger(context.Background(), logger)
	db := store.MemStore()
	tx := &htlctest.Tx{Msg: &htlctest.Msg{RoutePath: "aswap/create"}}

	l := NewLogging()

	_, err := l.Deliver(ctx, db, tx, &htlctest.Handler{DeliverResult: htlc.DeliverResult{Log: "swap created"}})
	require.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.Contains(out, "swap created"), out)
	assert.True(t, strings.Contains(out, "aswap/create"), out)

	buf.Reset()
	_, err = l.Deliver(ctx, db, tx, &htlctest.Handler{DeliverErr: errors.ErrState})
	assert.True(t, errors.ErrState.Is(err))
	assert.True(t, strings.Contains(buf.String(), "invalid state"), buf.String())

	// Check results are logged at the debug level only.
	buf.Reset()
	filtered := htlc.WithLogger(context.Background(), log.NewFilter(logger, log.AllowInfo()))
	_, err = l.Check(filtered, db, tx, &htlctest.Handler{CheckResult: htlc.CheckResult{Log: "checked"}})
	require.NoError(t, err)
	assert.Equal(t, "", buf.String())
}

func TestSavepoint(t *testing.T) {
	ctx := context.Background()
	tx := &htlctest.Tx{}
	key, value := []byte("key"), []byte("value")

	cases := map[string]struct {
		savepoint Savepoint
		handler   *htlctest.WriteHandler
		check     bool
		wantKey   bool
	}{
		"deliver success keeps writes": {
			savepoint: NewSavepoint().OnDeliver(),
			handler:   &htlctest.WriteHandler{Key: key, Value: value},
			wantKey:   true,
		},
		"deliver failure rolls back": {
			savepoint: NewSavepoint().OnDeliver(),
			handler:   &htlctest.WriteHandler{Key: key, Value: value, Err: errors.ErrState},
			wantKey:   false,
		},
		"check failure rolls back": {
			savepoint: NewSavepoint().OnCheck(),
			handler:   &htlctest.WriteHandler{Key: key, Value: value, Err: errors.ErrState},
			check:     true,
			wantKey:   false,
		},
		"disabled savepoint does not roll back": {
			savepoint: NewSavepoint().OnCheck(),
			handler:   &htlctest.WriteHandler{Key: key, Value: value, Err: errors.ErrState},
			wantKey:   true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if tc.check {
				_, _ = tc.savepoint.Check(ctx, db, tx, tc.handler)
			} else {
				_, _ = tc.savepoint.Deliver(ctx, db, tx, tc.handler)
			}
			has, err := db.Has(key)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKey, has)
		})
	}
}
