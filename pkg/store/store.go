// Package store is the key-value persistence the layout repository runs on.
// Every mutation happens inside Update, which either commits all of its
// writes or none of them.
package store

import "errors"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Tx is a view of the store inside one transaction. Values returned by Get
// are only valid until the transaction ends; callers copy what they keep.
type Tx interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// Keys lists every key, sorted.
	Keys() ([]string, error)
}

// Store runs read-only and read-write transactions. An error returned from
// the Update callback rolls back everything it wrote.
type Store interface {
	View(fn func(Tx) error) error
	Update(fn func(Tx) error) error
	Close() error
}
