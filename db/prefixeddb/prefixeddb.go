// Package prefixeddb namespaces a db.Database by prepending a fixed prefix
// to every key. Keys passed to Iterate callbacks have the namespace prefix
// removed.
package prefixeddb

import (
	"github.com/vocdoni/zkvote-node/db"
)

// PrefixedDatabase is a db.Database view restricted to one key prefix.
type PrefixedDatabase struct {
	db     db.Database
	prefix []byte
}

var _ db.Database = (*PrefixedDatabase)(nil)

// NewPrefixedDatabase returns a view of database under prefix. Closing the
// view closes the underlying database.
func NewPrefixedDatabase(database db.Database, prefix []byte) *PrefixedDatabase {
	return &PrefixedDatabase{db: database, prefix: prefix}
}

func prefixSlice(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	out = append(out, prefix...)
	return append(out, key...)
}

func (d *PrefixedDatabase) Close() error {
	return d.db.Close()
}

func (d *PrefixedDatabase) Compact() error {
	return d.db.Compact()
}

func (d *PrefixedDatabase) Get(key []byte) ([]byte, error) {
	return d.db.Get(prefixSlice(d.prefix, key))
}

func (d *PrefixedDatabase) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	return d.db.Iterate(prefixSlice(d.prefix, prefix), func(key, value []byte) bool {
		return callback(key[len(d.prefix):], value)
	})
}

func (d *PrefixedDatabase) WriteTx() db.WriteTx {
	return NewPrefixedWriteTx(d.db.WriteTx(), d.prefix)
}

// PrefixedReader is a db.Reader view restricted to one key prefix. It works
// both on databases and on write transactions.
type PrefixedReader struct {
	r      db.Reader
	prefix []byte
}

var _ db.Reader = (*PrefixedReader)(nil)

// NewPrefixedReader returns a read-only view of r under prefix.
func NewPrefixedReader(r db.Reader, prefix []byte) *PrefixedReader {
	return &PrefixedReader{r: r, prefix: prefix}
}

func (d *PrefixedReader) Get(key []byte) ([]byte, error) {
	return d.r.Get(prefixSlice(d.prefix, key))
}

func (d *PrefixedReader) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	return d.r.Iterate(prefixSlice(d.prefix, prefix), func(key, value []byte) bool {
		return callback(key[len(d.prefix):], value)
	})
}

// PrefixedWriteTx is a db.WriteTx view restricted to one key prefix.
type PrefixedWriteTx struct {
	tx     db.WriteTx
	prefix []byte
}

var _ db.WriteTx = (*PrefixedWriteTx)(nil)

// NewPrefixedWriteTx returns a view of tx under prefix. Several views may
// share tx, so that writes to different namespaces commit atomically.
func NewPrefixedWriteTx(tx db.WriteTx, prefix []byte) *PrefixedWriteTx {
	return &PrefixedWriteTx{tx: tx, prefix: prefix}
}

// Unwrap returns the wrapped transaction.
func (t *PrefixedWriteTx) Unwrap() db.WriteTx {
	return t.tx
}

func (t *PrefixedWriteTx) Get(key []byte) ([]byte, error) {
	return t.tx.Get(prefixSlice(t.prefix, key))
}

func (t *PrefixedWriteTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	return t.tx.Iterate(prefixSlice(t.prefix, prefix), func(key, value []byte) bool {
		return callback(key[len(t.prefix):], value)
	})
}

func (t *PrefixedWriteTx) Set(key, value []byte) error {
	return t.tx.Set(prefixSlice(t.prefix, key), value)
}

func (t *PrefixedWriteTx) Delete(key []byte) error {
	return t.tx.Delete(prefixSlice(t.prefix, key))
}

// Apply adds the writes of other. Keys of other are taken as they are in
// the backend transaction, with whatever prefix they already carry.
func (t *PrefixedWriteTx) Apply(other db.WriteTx) error {
	return t.tx.Apply(other)
}

func (t *PrefixedWriteTx) Commit() error {
	return t.tx.Commit()
}

func (t *PrefixedWriteTx) Discard() {
	t.tx.Discard()
}
