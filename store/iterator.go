package store

import (
	"bytes"

	"github.com/iov-one/htlc/errors"
)

// cacheIterator merges the cached writes of a BTreeCacheWrap with the
// content of its backing store. Cached entries win over the parent entries
// with the same key and deleted entries are skipped.
type cacheIterator struct {
	items   []item
	reverse bool

	parent     Iterator
	parentDone bool
	head       *Model
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []item, parent Iterator, reverse bool) *cacheIterator {
	return &cacheIterator{
		items:   items,
		reverse: reverse,
		parent:  parent,
	}
}

// Next returns the next key and value in the order of iteration.
func (c *cacheIterator) Next() ([]byte, []byte, error) {
	for {
		if err := c.loadHead(); err != nil {
			return nil, nil, err
		}

		switch {
		case len(c.items) == 0 && c.head == nil:
			return nil, nil, errors.ErrIteratorDone
		case len(c.items) == 0:
			return c.takeHead()
		case c.head == nil:
			if it, ok := c.takeItem(); ok {
				return it.key, it.value, nil
			}
			continue
		}

		cmp := bytes.Compare(c.items[0].key, c.head.Key)
		if c.reverse {
			cmp = -cmp
		}
		if cmp > 0 {
			return c.takeHead()
		}
		if cmp == 0 {
			// Cached value shadows the parent one.
			c.head = nil
		}
		if it, ok := c.takeItem(); ok {
			return it.key, it.value, nil
		}
	}
}

// Release releases the Iterator.
func (c *cacheIterator) Release() {
	c.parent.Release()
	c.items = nil
	c.head = nil
}

func (c *cacheIterator) loadHead() error {
	if c.head != nil || c.parentDone {
		return nil
	}
	key, value, err := c.parent.Next()
	switch {
	case err == nil:
		c.head = &Model{Key: key, Value: value}
		return nil
	case errors.ErrIteratorDone.Is(err):
		c.parentDone = true
		return nil
	default:
		return err
	}
}

func (c *cacheIterator) takeHead() ([]byte, []byte, error) {
	m := c.head
	c.head = nil
	return m.Key, m.Value, nil
}

// takeItem pops the first cached item. It returns false if that item
// represents a deletion.
func (c *cacheIterator) takeItem() (item, bool) {
	it := c.items[0]
	c.items = c.items[1:]
	return it, !it.deleted
}
