// Package db defines the key-value database interface used by the storage
// layer, implemented by the pebbledb and inmemory packages.
package db

import (
	"errors"
	"io"
)

const (
	// TypePebble is the persistent pebble backend.
	TypePebble = "pebble"
	// TypeInMem is the ephemeral in-memory backend.
	TypeInMem = "inmemory"
)

var (
	// ErrKeyNotFound is returned by Get when the key does not exist.
	ErrKeyNotFound = errors.New("key not found")
	// ErrConflict is returned by Commit when a key read or written by the
	// transaction was modified by another transaction committed meanwhile.
	// Only backends with conflict detection return it.
	ErrConflict = errors.New("transaction conflict")
	// ErrClosed is returned by operations on a closed database.
	ErrClosed = errors.New("database closed")
	// ErrTxDone is returned when committing a transaction twice.
	ErrTxDone = errors.New("transaction already committed or discarded")
)

// Options configures a database backend.
type Options struct {
	Path string
}

// Reader is the read side shared by databases and transactions.
type Reader interface {
	// Get returns a copy of the value of key, or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)
	// Iterate calls callback for every key with the given prefix, in
	// lexicographic order, until callback returns false. Neither key nor
	// value may be retained after the callback returns.
	Iterate(prefix []byte, callback func(key, value []byte) bool) error
}

// WriteTx buffers writes until Commit. Reads see the pending writes of the
// transaction itself.
type WriteTx interface {
	Reader
	Set(key, value []byte) error
	Delete(key []byte) error
	// Apply adds the pending writes of other to this transaction.
	Apply(other WriteTx) error
	// Commit applies the writes atomically. A committed or discarded
	// transaction cannot be committed again.
	Commit() error
	// Discard releases the transaction without applying its writes. It is
	// safe to call after Commit.
	Discard()
}

// Database is a key-value store with atomic write transactions.
type Database interface {
	io.Closer
	Reader
	WriteTx() WriteTx
	Compact() error
}

// Unwrapper is implemented by WriteTx wrappers, such as the prefixed
// transactions, to expose the backend transaction they wrap.
type Unwrapper interface {
	Unwrap() WriteTx
}

// UnwrapWriteTx returns the innermost backend transaction of tx.
func UnwrapWriteTx(tx WriteTx) WriteTx {
	for {
		u, ok := tx.(Unwrapper)
		if !ok {
			return tx
		}
		tx = u.Unwrap()
	}
}
