package store

import "github.com/iov-one/htlc"

// Aliases to the storage interfaces so that the rest of this package can use
// shorter names.
type (
	ReadOnlyKVStore  = htlc.ReadOnlyKVStore
	SetDeleter       = htlc.SetDeleter
	KVStore          = htlc.KVStore
	Batch            = htlc.Batch
	Iterator         = htlc.Iterator
	CacheableKVStore = htlc.CacheableKVStore
	KVCacheWrap      = htlc.KVCacheWrap
	CommitKVStore    = htlc.CommitKVStore
	CommitID         = htlc.CommitID
	Model            = htlc.Model
)

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return htlc.Pair(key, value)
}
