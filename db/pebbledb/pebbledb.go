// Package pebbledb implements db.Database on top of cockroachdb/pebble.
//
// Write transactions are indexed pebble batches: reads see the pending
// writes, but there is no conflict detection and reads of keys not written
// by the batch return the latest committed value. Callers that need
// isolation must serialize their read-modify-write cycles.
package pebbledb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/log"
)

// PebbleDB is a persistent db.Database.
type PebbleDB struct {
	db     *pebble.DB
	closed atomic.Bool
}

var _ db.Database = (*PebbleDB)(nil)

// New opens or creates a pebble database at opts.Path.
func New(opts db.Options) (*PebbleDB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("pebble database requires a path")
	}
	if err := os.MkdirAll(opts.Path, os.ModePerm); err != nil {
		return nil, err
	}
	o := &pebble.Options{
		Levels: []pebble.LevelOptions{
			{Compression: pebble.SnappyCompression},
		},
	}
	pdb, err := pebble.Open(opts.Path, o)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", opts.Path, err)
	}
	log.Debugw("pebble database opened", "path", opts.Path)
	return &PebbleDB{db: pdb}, nil
}

// Close closes the database. Closing twice is a no-op.
func (p *PebbleDB) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}

func (p *PebbleDB) Get(key []byte) ([]byte, error) {
	if p.closed.Load() {
		return nil, db.ErrClosed
	}
	return get(p.db.Get, key)
}

func (p *PebbleDB) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	if p.closed.Load() {
		return db.ErrClosed
	}
	return iterate(p.db, prefix, callback)
}

func (p *PebbleDB) WriteTx() db.WriteTx {
	return &WriteTx{batch: p.db.NewIndexedBatch(), db: p}
}

// Compact compacts the whole key range of the database.
func (p *PebbleDB) Compact() error {
	if p.closed.Load() {
		return db.ErrClosed
	}
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	var first, last []byte
	if iter.First() {
		first = bytes.Clone(iter.Key())
	}
	if iter.Last() {
		last = bytes.Clone(iter.Key())
	}
	if err := iter.Close(); err != nil {
		return err
	}
	if first == nil {
		return nil
	}
	// the end key is exclusive
	return p.db.Compact(first, append(last, 0), true)
}

// WriteTx wraps an indexed pebble batch.
type WriteTx struct {
	batch *pebble.Batch
	db    *PebbleDB
	done  bool
}

var _ db.WriteTx = (*WriteTx)(nil)

func (tx *WriteTx) Get(key []byte) ([]byte, error) {
	if tx.db.closed.Load() {
		return nil, db.ErrClosed
	}
	return get(tx.batch.Get, key)
}

func (tx *WriteTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.db.closed.Load() {
		return db.ErrClosed
	}
	return iterate(tx.batch, prefix, callback)
}

func (tx *WriteTx) Set(key, value []byte) error {
	return tx.batch.Set(key, value, nil)
}

func (tx *WriteTx) Delete(key []byte) error {
	return tx.batch.Delete(key, nil)
}

// Apply adds the operations of other, which must be a pebble transaction,
// possibly wrapped.
func (tx *WriteTx) Apply(other db.WriteTx) error {
	o, ok := db.UnwrapWriteTx(other).(*WriteTx)
	if !ok {
		return fmt.Errorf("cannot apply %T to a pebble transaction", other)
	}
	return tx.batch.Apply(o.batch, nil)
}

func (tx *WriteTx) Commit() error {
	if tx.done {
		return db.ErrTxDone
	}
	if tx.db.closed.Load() {
		return db.ErrClosed
	}
	tx.done = true
	err := tx.batch.Commit(pebble.Sync)
	if errC := tx.release(); err == nil {
		err = errC
	}
	return err
}

func (tx *WriteTx) Discard() {
	if tx.done {
		return
	}
	tx.done = true
	if err := tx.release(); err != nil {
		log.Warnw("error closing pebble batch", "error", err)
	}
}

// release closes the batch, committed or not.
func (tx *WriteTx) release() error {
	err := tx.batch.Close()
	tx.batch = nil
	return err
}

func get(getFn func([]byte) ([]byte, io.Closer, error), key []byte) ([]byte, error) {
	value, closer, err := getFn(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	// the value is only valid until the closer is called
	valueCopy := bytes.Clone(value)
	return valueCopy, closer.Close()
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix, or nil if there is none.
func keyUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func iterate(reader pebble.Reader, prefix []byte, callback func(key, value []byte) bool) (err error) {
	iter, err := reader.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer func() {
		if errC := iter.Close(); err == nil {
			err = errC
		}
	}()
	for iter.First(); iter.Valid(); iter.Next() {
		if !callback(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}
