package orm

import (
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
)

func TestModelBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := ticketBucket()
	qr := htlc.NewQueryRouter()
	b.Register("", qr)

	t1 := &ticket{Owner: []byte("alice"), Serial: "A1", Seats: 1}
	t2 := &ticket{Owner: []byte("alice"), Serial: "A2", Seats: 2}
	t3 := &ticket{Owner: []byte("bob"), Serial: "B1", Seats: 3}
	assert.Nil(t, b.Put(db, []byte("t1"), t1))
	assert.Nil(t, b.Put(db, []byte("t2"), t2))
	assert.Nil(t, b.Put(db, []byte("u1"), t3))

	decode := func(models []htlc.Model) []*ticket {
		res := make([]*ticket, len(models))
		for i, m := range models {
			var tk ticket
			assert.Nil(t, tk.Unmarshal(m.Value))
			res[i] = &tk
		}
		return res
	}

	byKey := qr.Handler("/tickets")
	if byKey == nil {
		t.Fatal("bucket not registered")
	}
	models, err := byKey.Query(db, htlc.KeyQueryMod, []byte("t2"))
	assert.Nil(t, err)
	assert.Equal(t, []*ticket{t2}, decode(models))
	assert.Equal(t, []byte("tickets:t2"), models[0].Key)

	models, err = byKey.Query(db, htlc.KeyQueryMod, []byte("t9"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(models))

	models, err = byKey.Query(db, htlc.PrefixQueryMod, []byte("t"))
	assert.Nil(t, err)
	assert.Equal(t, []*ticket{t1, t2}, decode(models))

	_, err = byKey.Query(db, "range", []byte("t"))
	assert.IsErr(t, errors.ErrInput, err)

	byOwner := qr.Handler("/tickets/owner")
	if byOwner == nil {
		t.Fatal("index not registered")
	}
	models, err = byOwner.Query(db, htlc.KeyQueryMod, []byte("alice"))
	assert.Nil(t, err)
	assert.Equal(t, []*ticket{t1, t2}, decode(models))

	models, err = byOwner.Query(db, htlc.KeyQueryMod, []byte("carol"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(models))

	_, err = byOwner.Query(db, htlc.PrefixQueryMod, []byte("a"))
	assert.IsErr(t, errors.ErrInput, err)

	if qr.Handler("/tickets/seats") != nil {
		t.Fatal("unknown index must not be registered")
	}
}

func TestModelBucketRegisterTwice(t *testing.T) {
	qr := htlc.NewQueryRouter()
	ticketBucket().Register("tickets", qr)
	assert.Panics(t, func() { ticketBucket().Register("", qr) })
}

func TestPrefixEnd(t *testing.T) {
	cases := map[string]struct {
		prefix []byte
		want   []byte
	}{
		"simple":        {prefix: []byte("abc"), want: []byte("abd")},
		"trailing 0xff": {prefix: []byte{0x01, 0xff}, want: []byte{0x02}},
		"all 0xff":      {prefix: []byte{0xff, 0xff}, want: nil},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, prefixEnd(tc.prefix))
		})
	}
}
