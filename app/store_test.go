package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/store/iavl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
)

// kvHandler stores "key=value" messages. A message with value "fail" is
// written and then rejected, so that the write must be rolled back.
type kvHandler struct {
	seen []time.Time
}

func (h *kvHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	_, err := h.write(ctx, db, tx)
	return &htlc.CheckResult{}, err
}

func (h *kvHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	key, err := h.write(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Data: key}, nil
}

func (h *kvHandler) write(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) ([]byte, error) {
	now, ok := htlc.BlockTime(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "no block time")
	}
	h.seen = append(h.seen, now)

	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	raw, _ := msg.Marshal()
	parts := bytes.SplitN(raw, []byte("="), 2)
	if len(parts) != 2 {
		return nil, errors.Wrap(errors.ErrInput, "key=value expected")
	}
	if err := db.Set(parts[0], parts[1]); err != nil {
		return nil, err
	}
	if string(parts[1]) == "fail" {
		return nil, errors.Wrap(errors.ErrState, "rejected")
	}
	return parts[0], nil
}

func decodeKV(raw []byte) (htlc.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrInput, "empty")
	}
	return &htlctest.Tx{Msg: &htlctest.Msg{RoutePath: "test/kv", Serialized: raw}}, nil
}

type genesisWriter struct{}

func (genesisWriter) FromGenesis(opts htlc.Options, db htlc.KVStore) error {
	var kv map[string]string
	if err := opts.ReadOptions("kv", &kv); err != nil {
		return err
	}
	for k, v := range kv {
		if err := db.Set([]byte(k), []byte(v)); err != nil {
			return err
		}
	}
	return nil
}

func testGenesis(t testing.TB) Genesis {
	t.Helper()
	state, err := json.Marshal(map[string]string{"genesis": "loaded"})
	require.NoError(t, err)
	return Genesis{
		ChainID:  "store-test",
		AppState: htlc.Options{"kv": state},
	}
}

// rawQuery returns the raw value stored under the key given as data.
type rawQuery struct{}

func (rawQuery) Query(db htlc.ReadOnlyKVStore, mod string, data []byte) ([]htlc.Model, error) {
	if mod != htlc.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query modifier %q", mod)
	}
	value, err := db.Get(data)
	if err != nil || value == nil {
		return nil, err
	}
	return []htlc.Model{htlc.Pair(data, value)}, nil
}

func newTestApp(t testing.TB, db htlc.CommitKVStore, h htlc.Handler) BaseApp {
	t.Helper()
	qr := htlc.NewQueryRouter()
	qr.Register("/raw", rawQuery{})
	s, err := NewStoreApp("test", db, qr)
	require.NoError(t, err)
	return NewBaseApp(s.WithInit(genesisWriter{}), decodeKV, h, false)
}

func initChain(t testing.TB, a BaseApp) {
	t.Helper()
	req, err := testGenesis(t).InitChainRequest()
	require.NoError(t, err)
	a.InitChain(req)
	a.Commit()
}

func beginBlock(a BaseApp, at time.Time) {
	a.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{ChainID: "store-test", Time: at}})
}

func deliver(a BaseApp, raw string) (*htlc.DeliverResult, error) {
	return htlc.ParseDeliverOrError(a.DeliverTx([]byte(raw)))
}

func get(t testing.TB, a BaseApp, key string) string {
	t.Helper()
	res := a.Query(abci.RequestQuery{Path: "/raw", Data: []byte(key)})
	require.Equal(t, errors.SuccessABCICode, res.Code, res.Log)

	var values ResultSet
	require.NoError(t, values.Unmarshal(res.Value))
	if len(values.Results) == 0 {
		return ""
	}
	return string(values.Results[0])
}

func TestStoreAppLifecycle(t *testing.T) {
	db, cleanup := htlctest.CommitKVStore(t)
	defer cleanup()

	h := &kvHandler{}
	a := newTestApp(t, db, h)
	assert.Equal(t, "", a.ChainID())

	// Nothing can be processed before the chain exists.
	assert.Panics(t, func() { beginBlock(a, time.Now()) })

	initChain(t, a)
	assert.Equal(t, "store-test", a.ChainID())
	assert.Equal(t, "loaded", get(t, a, "genesis"))

	info := a.Info(abci.RequestInfo{})
	assert.Equal(t, "test", info.Data)
	assert.Equal(t, int64(1), info.LastBlockHeight)

	req, err := testGenesis(t).InitChainRequest()
	require.NoError(t, err)
	assert.Panics(t, func() { a.InitChain(req) })

	// A block must be opened before delivering.
	_, err = deliver(a, "a=1")
	assert.True(t, errors.ErrState.Is(err), "got %+v", err)

	t1 := time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)
	beginBlock(a, t1)

	res, err := deliver(a, "a=1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), res.Data)

	_, err = deliver(a, "b=fail")
	assert.True(t, errors.ErrState.Is(err), "got %+v", err)

	_, err = deliver(a, "")
	assert.True(t, errors.ErrInput.Is(err), "got %+v", err)

	// Nothing of the open block is visible before the commit.
	assert.Equal(t, "", get(t, a, "a"))

	commit := a.Commit()
	assert.NotEmpty(t, commit.Data)
	assert.Equal(t, "1", get(t, a, "a"))
	assert.Equal(t, "", get(t, a, "b"))
	assert.Equal(t, int64(2), a.Info(abci.RequestInfo{}).LastBlockHeight)

	// Check never persists anything.
	_, err = htlc.ParseCheckOrError(a.CheckTx([]byte("c=3")))
	require.NoError(t, err)
	assert.Equal(t, "", get(t, a, "c"))

	assert.Equal(t, []time.Time{t1, t1, t1}, h.seen)
}

func TestStoreAppQuery(t *testing.T) {
	db, cleanup := htlctest.CommitKVStore(t)
	defer cleanup()

	a := newTestApp(t, db, &kvHandler{})
	initChain(t, a)

	res := a.Query(abci.RequestQuery{Path: "/raw", Data: []byte("genesis")})
	require.Equal(t, errors.SuccessABCICode, res.Code, res.Log)
	var keys, values ResultSet
	require.NoError(t, keys.Unmarshal(res.Key))
	require.NoError(t, values.Unmarshal(res.Value))
	models, err := JoinResults(&keys, &values)
	require.NoError(t, err)
	assert.Equal(t, []htlc.Model{htlc.Pair([]byte("genesis"), []byte("loaded"))}, models)
	assert.Equal(t, int64(1), res.Height)

	res = a.Query(abci.RequestQuery{Path: "/unknown"})
	assert.True(t, errors.ErrNotFound.Is(errors.ABCIError(res.Code, res.Log)), "got %d %s", res.Code, res.Log)

	res = a.Query(abci.RequestQuery{Path: "/raw?prefix", Data: []byte("gen")})
	assert.True(t, errors.ErrInput.Is(errors.ABCIError(res.Code, res.Log)), "got %d %s", res.Code, res.Log)

	res = a.Query(abci.RequestQuery{Path: "/raw", Data: []byte("missing")})
	require.Equal(t, errors.SuccessABCICode, res.Code, res.Log)
	var rs ResultSet
	err = UnmarshalOneResult(res.Value, &rs)
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
}

func TestStoreAppMonotonicClock(t *testing.T) {
	db, cleanup := htlctest.CommitKVStore(t)
	defer cleanup()

	a := newTestApp(t, db, &kvHandler{})
	initChain(t, a)

	t1 := time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)
	beginBlock(a, t1)

	assert.Panics(t, func() { beginBlock(a, t1.Add(time.Second)) }, "block not committed")
	a.Commit()

	assert.Panics(t, func() { beginBlock(a, t1.Add(-time.Second)) })
	assert.Panics(t, func() { beginBlock(a, time.Time{}) })
	assert.Panics(t, func() {
		a.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{ChainID: "other-chain", Time: t1}})
	})

	// The same time is allowed.
	beginBlock(a, t1)
	a.Commit()
	assert.Equal(t, t1, a.BlockTime())
}

func TestStoreAppReload(t *testing.T) {
	dir := t.TempDir()

	open := func() (*iavl.CommitStore, BaseApp) {
		db, err := iavl.NewCommitStore(dir, "state")
		require.NoError(t, err)
		require.NoError(t, db.LoadLatestVersion())
		return db, newTestApp(t, db, &kvHandler{})
	}

	db, a := open()
	initChain(t, a)

	t1 := time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)
	beginBlock(a, t1)
	_, err := deliver(a, "a=1")
	require.NoError(t, err)
	a.Commit()

	// An uncommitted block is lost on restart.
	beginBlock(a, t1.Add(time.Hour))
	_, err = deliver(a, "b=2")
	require.NoError(t, err)
	db.Close()

	db, a = open()
	defer db.Close()

	assert.Equal(t, "store-test", a.ChainID())
	assert.Equal(t, t1, a.BlockTime())
	assert.Equal(t, "1", get(t, a, "a"))
	assert.Equal(t, "", get(t, a, "b"))
	assert.Equal(t, int64(2), a.Info(abci.RequestInfo{}).LastBlockHeight)

	assert.Panics(t, func() { beginBlock(a, t1.Add(-time.Minute)) })
}
