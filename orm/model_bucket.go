package orm

import (
	"reflect"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	htlc.Persistent
	Validate() error
}

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model Because of Go type system, using []Model would not work for us.
// Instead we use a placeholder type and the validation is done during the
// runtime.
type ModelSlicePtr interface{}

// ModelBucket is implemented by buckets that operates on Models rather than
// Objects.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db htlc.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists in the
	// database and ErrNotFound otherwise.
	Has(db htlc.ReadOnlyKVStore, key []byte) error

	// ByIndex returns all models that secondary index with given name
	// and given key point to. Results are appended to dest, ordered by
	// their primary key. If nothing matches, dest is not modified and no
	// error is returned.
	ByIndex(db htlc.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) error

	// Put saves given model in the database and updates all indexes.
	// A unique index that already points to another entity makes this
	// method fail with ErrDuplicate.
	Put(db htlc.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db htlc.KVStore, key []byte) error

	// Register exposes the bucket and its indexes to queries.
	Register(name string, r htlc.QueryRouter)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. An empty value leaves the entity out of the index.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.indexes = append(mb.indexes, newIndex(mb.name, name, indexer, unique))
	}
}

// NewModelBucket returns a ModelBucket instance storing models of the same
// type as the given one, under the given name. Name must be unique for the
// application.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(errors.Wrapf(errors.ErrHuman, "invalid bucket name %q", name))
	}
	mt := reflect.TypeOf(m)
	if mt.Kind() != reflect.Ptr || mt.Elem().Kind() != reflect.Struct {
		panic(errors.Wrapf(errors.ErrHuman, "model %T must be a pointer to a struct", m))
	}
	mb := &modelBucket{
		name:   name,
		prefix: []byte(name + ":"),
		model:  mt,
	}
	for _, fn := range opts {
		fn(mb)
	}
	seen := make(map[string]bool)
	for _, idx := range mb.indexes {
		if seen[idx.name] || !isBucketName(idx.name) {
			panic(errors.Wrapf(ErrInvalidIndex, "%s: %q", name, idx.name))
		}
		seen[idx.name] = true
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes []*index
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte{}, mb.prefix...), key...)
}

func (mb *modelBucket) newModel() Model {
	return reflect.New(mb.model.Elem()).Interface().(Model)
}

func (mb *modelBucket) One(db htlc.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %s", dest, mb.model)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %s %X: %s", mb.name, key, err)
	}
	return nil
}

func (mb *modelBucket) Has(db htlc.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) ByIndex(db htlc.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) error {
	idx, err := mb.index(indexName)
	if err != nil {
		return err
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return errors.Wrapf(errors.ErrType, "destination %T is not a slice pointer", dest)
	}
	slice := dv.Elem()
	var byValue bool
	switch elem := slice.Type().Elem(); {
	case elem == mb.model:
	case reflect.PtrTo(elem) == mb.model:
		byValue = true
	default:
		return errors.Wrapf(errors.ErrType, "cannot load %s into %T", mb.model, dest)
	}

	refs, err := idx.refs(db, key)
	if err != nil {
		return err
	}
	for _, ref := range refs.Refs {
		m := mb.newModel()
		if err := mb.One(db, ref, m); err != nil {
			return errors.Wrapf(err, "index %s points to a missing entity", indexName)
		}
		val := reflect.ValueOf(m)
		if byValue {
			val = val.Elem()
		}
		slice = reflect.Append(slice, val)
	}
	dv.Elem().Set(slice)
	return nil
}

func (mb *modelBucket) Put(db htlc.KVStore, key []byte, m Model) error {
	if reflect.TypeOf(m) != mb.model {
		return errors.Wrapf(errors.ErrType, "%T cannot be stored in %s bucket", m, mb.name)
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}

	old, err := mb.load(db, key)
	if err != nil {
		return err
	}

	changes := make([]indexChange, 0, len(mb.indexes))
	for _, idx := range mb.indexes {
		ch, err := idx.diff(db, key, old, m)
		if err != nil {
			return errors.Wrapf(err, "index %s", idx.name)
		}
		changes = append(changes, ch)
	}
	for _, ch := range changes {
		if err := ch.apply(db, key); err != nil {
			return err
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db htlc.KVStore, key []byte) error {
	old, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if old == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	for _, idx := range mb.indexes {
		ch, err := idx.diff(db, key, old, nil)
		if err != nil {
			return errors.Wrapf(err, "index %s", idx.name)
		}
		if err := ch.apply(db, key); err != nil {
			return err
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

// load returns the model stored under given key or nil if not found.
func (mb *modelBucket) load(db htlc.ReadOnlyKVStore, key []byte) (Model, error) {
	m := mb.newModel()
	switch err := mb.One(db, key, m); {
	case err == nil:
		return m, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

func (mb *modelBucket) index(name string) (*index, error) {
	for _, idx := range mb.indexes {
		if idx.name == name {
			return idx, nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidIndex, "%s bucket has no index %q", mb.name, name)
}

func isBucketName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
