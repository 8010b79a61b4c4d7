package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/stretchr/testify/require"
)

// TestSuite runs the same set of checks against any CacheableKVStore
// implementation. Both the in memory btree store and the iavl backed store
// are tested with it.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a new, empty store and a function releasing
// its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that cache wraps expose the parent data and that their own
// writes are only visible after Write.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("swap"), []byte("created")
	s.AssertGetHas(t, base, k, nil, false)
	require.NoError(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("vault"), []byte("locked")
	require.NoError(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	require.NoError(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// A discarded cache leaves no trace.
	k3, v3 := []byte("secret"), []byte("revealed")
	discarded := base.CacheWrap()
	require.NoError(t, discarded.Set(k3, v3))
	discarded.Discard()
	s.AssertGetHas(t, base, k3, nil, false)

	deleting := base.CacheWrap()
	require.NoError(t, deleting.Delete(k))
	s.AssertGetHas(t, deleting, k, nil, false)
	s.AssertGetHas(t, base, k, v, true)
	require.NoError(t, deleting.Write())
	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 40)

	parent, cleanup := s.makeBase()
	defer cleanup()

	require.NoError(t, parent.Set(ks[1], vs[1]))
	require.NoError(t, parent.Set(ks[2], vs[2]))

	child := parent.CacheWrap()
	require.NoError(t, child.Set(ks[1], vs[0]))
	require.NoError(t, child.Set(ks[3], vs[3]))
	require.NoError(t, child.Delete(ks[2]))

	s.AssertGetHas(t, parent, ks[1], vs[1], true)
	s.AssertGetHas(t, parent, ks[2], vs[2], true)
	s.AssertGetHas(t, parent, ks[3], nil, false)

	childView := []Model{Pair(ks[1], vs[0]), Pair(ks[2], nil), Pair(ks[3], vs[3])}
	for _, q := range childView {
		s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
	}
	require.NoError(t, child.Write())
	for _, q := range childView {
		s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
	}
}

// FuzzIterator checks iteration over random data written to both the parent
// and a cache wrap, including deletes of not existing keys.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 40

	toSet := randModels(size, 8, 40)
	parentSet := randModels(size, 8, 40)
	all := sortModels(append(append([]Model{}, toSet...), parentSet...))

	base, cleanup := s.makeBase()
	defer cleanup()

	c := iterCase{
		pre:   append(makeSetOps(parentSet...), makeDelOps(randModels(10, 8, 1)...)...),
		child: append(makeSetOps(toSet...), makeDelOps(randModels(10, 8, 1)...)...),
		queries: []rangeQuery{
			{nil, nil, false, all},
			{all[10].Key, nil, false, all[10:]},
			{nil, all[size-8].Key, false, all[:size-8]},
			{all[17].Key, all[28].Key, false, all[17:28]},
			{nil, nil, true, reverse(all)},
			{all[34].Key, nil, true, reverse(all[34:])},
			{nil, all[19].Key, true, reverse(all[:19])},
			{all[6].Key, all[26].Key, true, reverse(all[6:26])},
		},
	}
	c.verify(t, base)
}

// IteratorWithConflicts covers overwrites and deletes of parent data by the
// cache wrap.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(6, 20, 100)
	a, a2, b, b2, c, d := ms[0], ms[1], ms[2], ms[3], ms[4], ms[5]
	a2.Key = a.Key
	b2.Key = b.Key

	abc := sortModels([]Model{a, b, c})
	overwritten := sortModels([]Model{a2, b2, c, d})

	cases := map[string]iterCase{
		"child only": {
			child:   makeSetOps(a, b, c),
			queries: []rangeQuery{{nil, nil, false, abc}, {nil, nil, true, reverse(abc)}},
		},
		"parent only": {
			pre:     makeSetOps(a, b, c),
			queries: []rangeQuery{{nil, nil, false, abc}, {abc[1].Key, abc[2].Key, false, abc[1:2]}},
		},
		"overwrite shows child data": {
			pre:   makeSetOps(a, b, c),
			child: makeSetOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, false, overwritten},
				{overwritten[1].Key, overwritten[3].Key, false, overwritten[1:3]},
				{nil, nil, true, reverse(overwritten)},
			},
		},
		"deletes hide parent data": {
			pre:   makeSetOps(a, c, d),
			child: makeDelOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, false, []Model{c}},
				{nil, c.Key, false, nil},
				{nil, nil, true, []Model{c}},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// AssertGetHas ensures that both Get and Has of given key return expected
// values.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	require.Equal(t, val, got)
	exists, err := kv.Has(key)
	require.NoError(t, err)
	require.Equal(t, has, exists)
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (i iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range i.pre {
		require.NoError(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range i.child {
		require.NoError(t, op.Apply(child))
	}

	for _, q := range i.queries {
		var (
			iter Iterator
			err  error
		)
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		require.NoError(t, err)

		for n, want := range q.expected {
			key, value, err := iter.Next()
			require.NoError(t, err)
			if !bytes.Equal(want.Key, key) {
				t.Fatalf("want key %d to be %X, got %X", n, want.Key, key)
			}
			require.Equal(t, want.Value, value)
		}
		_, _, err = iter.Next()
		if !errors.ErrIteratorDone.Is(err) {
			t.Fatalf("want ErrIteratorDone, got %+v", err)
		}
		iter.Release()
	}
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
