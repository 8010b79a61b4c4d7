package orm

import (
	"bytes"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Indexer calculates the secondary index value of a model. Returning an
// empty value excludes the model from the index.
type Indexer func(Model) ([]byte, error)

type index struct {
	name    string
	prefix  []byte
	indexer Indexer
	unique  bool
}

func newIndex(bucket, name string, indexer Indexer, unique bool) *index {
	return &index{
		name:    name,
		prefix:  []byte("_i." + bucket + "_" + name + ":"),
		indexer: indexer,
		unique:  unique,
	}
}

func (i *index) dbKey(value []byte) []byte {
	return append(append([]byte{}, i.prefix...), value...)
}

func (i *index) value(m Model) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return i.indexer(m)
}

// refs returns the primary keys referenced by given index value. A value
// that is not indexed returns an empty set.
func (i *index) refs(db htlc.ReadOnlyKVStore, value []byte) (*MultiRef, error) {
	raw, err := db.Get(i.dbKey(value))
	if err != nil {
		return nil, errors.Wrap(err, "cannot read index")
	}
	var refs MultiRef
	if raw == nil {
		return &refs, nil
	}
	if err := refs.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "index %s: %s", i.name, err)
	}
	return &refs, nil
}

func (i *index) save(db htlc.KVStore, value []byte, refs *MultiRef) error {
	if len(refs.Refs) == 0 {
		return db.Delete(i.dbKey(value))
	}
	raw, err := refs.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal index")
	}
	return db.Set(i.dbKey(value), raw)
}

// indexChange describes how an index must be updated when an entity changes
// from one version to another.
type indexChange struct {
	idx    *index
	remove []byte
	add    []byte
}

// diff computes the index update needed when the entity stored under key is
// replaced. Both prev and next can be nil. Unique constraint is verified
// here so that no write happens before all indexes accept the change.
func (i *index) diff(db htlc.ReadOnlyKVStore, key []byte, prev, next Model) (indexChange, error) {
	prevVal, err := i.value(prev)
	if err != nil {
		return indexChange{}, err
	}
	nextVal, err := i.value(next)
	if err != nil {
		return indexChange{}, err
	}
	if bytes.Equal(prevVal, nextVal) {
		return indexChange{}, nil
	}

	if i.unique && len(nextVal) != 0 {
		refs, err := i.refs(db, nextVal)
		if err != nil {
			return indexChange{}, err
		}
		if len(refs.Refs) != 0 {
			return indexChange{}, errors.Wrapf(errors.ErrDuplicate, "unique index %s: %X", i.name, nextVal)
		}
	}
	return indexChange{idx: i, remove: prevVal, add: nextVal}, nil
}

func (c indexChange) apply(db htlc.KVStore, key []byte) error {
	if c.idx == nil {
		return nil
	}
	if len(c.remove) != 0 {
		refs, err := c.idx.refs(db, c.remove)
		if err != nil {
			return err
		}
		if err := refs.Remove(key); err != nil {
			return errors.Wrapf(err, "index %s", c.idx.name)
		}
		if err := c.idx.save(db, c.remove, refs); err != nil {
			return err
		}
	}
	if len(c.add) != 0 {
		refs, err := c.idx.refs(db, c.add)
		if err != nil {
			return err
		}
		if err := refs.Add(key); err != nil {
			return errors.Wrapf(err, "index %s", c.idx.name)
		}
		if err := c.idx.save(db, c.add, refs); err != nil {
			return err
		}
	}
	return nil
}
