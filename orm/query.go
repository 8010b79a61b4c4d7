package orm

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Register exposes the bucket under "/<name>" and each of its indexes under
// "/<name>/<index>". An empty name uses the bucket name.
func (mb *modelBucket) Register(name string, r htlc.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	r.Register(root, mb)
	for _, idx := range mb.indexes {
		r.Register(root+"/"+idx.name, indexQuery{mb: mb, idx: idx})
	}
}

// Query returns the entity stored under the primary key given as data, or
// with the "prefix" modifier all entities whose primary key starts with it.
func (mb *modelBucket) Query(db htlc.ReadOnlyKVStore, mod string, data []byte) ([]htlc.Model, error) {
	switch mod {
	case htlc.KeyQueryMod:
		key := mb.dbKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(err, "cannot get from the database")
		}
		if value == nil {
			return nil, nil
		}
		return []htlc.Model{htlc.Pair(key, value)}, nil
	case htlc.PrefixQueryMod:
		return queryPrefix(db, mb.dbKey(data))
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query modifier %q", mod)
	}
}

// indexQuery returns all entities an index value points to.
type indexQuery struct {
	mb  *modelBucket
	idx *index
}

func (q indexQuery) Query(db htlc.ReadOnlyKVStore, mod string, data []byte) ([]htlc.Model, error) {
	if mod != htlc.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query modifier %q", mod)
	}
	refs, err := q.idx.refs(db, data)
	if err != nil {
		return nil, err
	}
	res := make([]htlc.Model, 0, len(refs.Refs))
	for _, ref := range refs.Refs {
		key := q.mb.dbKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(err, "cannot get from the database")
		}
		if value == nil {
			return nil, errors.Wrapf(errors.ErrState, "index %s points to a missing entity %X", q.idx.name, ref)
		}
		res = append(res, htlc.Pair(key, value))
	}
	return res, nil
}

func queryPrefix(db htlc.ReadOnlyKVStore, prefix []byte) ([]htlc.Model, error) {
	it, err := db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, errors.Wrap(err, "cannot iterate")
	}
	defer it.Release()

	var res []htlc.Model
	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, htlc.Pair(key, value))
	}
}

// prefixEnd returns the smallest key greater than every key starting with
// given prefix, or nil if there is none.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
