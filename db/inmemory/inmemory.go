// Package inmemory implements an ephemeral db.Database with optimistic
// conflict detection. It backs tests and nodes started without a data
// directory.
package inmemory

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/vocdoni/zkvote-node/db"
)

type entry struct {
	value   []byte
	version uint64
	deleted bool
}

// InMemoryDB keeps every key in a map. Each write bumps a global version so
// that transactions can detect keys modified after they read them.
type InMemoryDB struct {
	mu          sync.RWMutex
	data        map[string]entry
	nextVersion uint64
	closed      bool
}

var _ db.Database = (*InMemoryDB)(nil)

// New returns a new in-memory database. Options are ignored.
func New(_ db.Options) (*InMemoryDB, error) {
	return &InMemoryDB{data: make(map[string]entry)}, nil
}

// Close drops the content of the database.
func (d *InMemoryDB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.data = nil
	return nil
}

func (d *InMemoryDB) Compact() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return db.ErrClosed
	}
	// dropping tombstones may make open transactions that read them fail
	// with a conflict, never succeed wrongly
	for k, ent := range d.data {
		if ent.deleted {
			delete(d.data, k)
		}
	}
	return nil
}

func (d *InMemoryDB) WriteTx() db.WriteTx {
	d.mu.RLock()
	baseVer := d.nextVersion
	d.mu.RUnlock()
	return &WriteTx{
		db:      d,
		writes:  make(map[string]*[]byte),
		reads:   make(map[string]uint64),
		baseVer: baseVer,
	}
}

func (d *InMemoryDB) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, db.ErrClosed
	}
	ent, ok := d.data[string(key)]
	if !ok || ent.deleted {
		return nil, db.ErrKeyNotFound
	}
	return bytes.Clone(ent.value), nil
}

func (d *InMemoryDB) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	entries, _, err := d.snapshot(prefix)
	if err != nil {
		return err
	}
	return iterateEntries(entries, callback)
}

// snapshot copies the live entries under prefix with their versions.
func (d *InMemoryDB) snapshot(prefix []byte) (map[string][]byte, map[string]uint64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, nil, db.ErrClosed
	}
	entries := make(map[string][]byte)
	versions := make(map[string]uint64)
	for k, ent := range d.data {
		if ent.deleted || !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		entries[k] = bytes.Clone(ent.value)
		versions[k] = ent.version
	}
	return entries, versions, nil
}

func (d *InMemoryDB) currentVersion(key string) uint64 {
	return d.data[key].version
}

func (d *InMemoryDB) applyWrite(key string, value *[]byte) {
	d.nextVersion++
	ent := entry{version: d.nextVersion}
	if value == nil {
		ent.deleted = true
	} else {
		ent.value = bytes.Clone(*value)
	}
	d.data[key] = ent
}

// WriteTx records the version of every key it touches and fails the commit
// with db.ErrConflict if any of them changed in the meantime.
type WriteTx struct {
	db     *InMemoryDB
	writes map[string]*[]byte
	reads  map[string]uint64
	// baseVer is the database version when the transaction started
	baseVer uint64
	done    bool
}

var _ db.WriteTx = (*WriteTx)(nil)

func (tx *WriteTx) recordRead(key string, version uint64) {
	if _, ok := tx.reads[key]; !ok {
		tx.reads[key] = version
	}
}

func (tx *WriteTx) touch(key string) {
	if _, ok := tx.reads[key]; ok {
		return
	}
	tx.db.mu.RLock()
	version := tx.db.currentVersion(key)
	tx.db.mu.RUnlock()
	tx.recordRead(key, version)
}

func (tx *WriteTx) Get(key []byte) ([]byte, error) {
	strKey := string(key)
	if pending, ok := tx.writes[strKey]; ok {
		if pending == nil {
			return nil, db.ErrKeyNotFound
		}
		return bytes.Clone(*pending), nil
	}

	tx.db.mu.RLock()
	if tx.db.closed {
		tx.db.mu.RUnlock()
		return nil, db.ErrClosed
	}
	ent, ok := tx.db.data[strKey]
	tx.db.mu.RUnlock()

	tx.recordRead(strKey, ent.version)
	if !ok || ent.deleted {
		return nil, db.ErrKeyNotFound
	}
	return bytes.Clone(ent.value), nil
}

func (tx *WriteTx) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	entries, versions, err := tx.db.snapshot(prefix)
	if err != nil {
		return err
	}
	for k, v := range tx.writes {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(entries, k)
			continue
		}
		entries[k] = bytes.Clone(*v)
	}
	for k, ver := range versions {
		tx.recordRead(k, ver)
	}
	return iterateEntries(entries, callback)
}

func (tx *WriteTx) Set(key, value []byte) error {
	strKey := string(key)
	tx.touch(strKey)
	valCopy := bytes.Clone(value)
	tx.writes[strKey] = &valCopy
	return nil
}

func (tx *WriteTx) Delete(key []byte) error {
	strKey := string(key)
	tx.touch(strKey)
	tx.writes[strKey] = nil
	return nil
}

// Apply merges the pending writes of other, deletions included. other must
// be an inmemory transaction, possibly wrapped.
func (tx *WriteTx) Apply(other db.WriteTx) error {
	o, ok := db.UnwrapWriteTx(other).(*WriteTx)
	if !ok {
		return fmt.Errorf("cannot apply %T to an inmemory transaction", other)
	}
	for k, v := range o.writes {
		if v == nil {
			if err := tx.Delete([]byte(k)); err != nil {
				return err
			}
			continue
		}
		if err := tx.Set([]byte(k), *v); err != nil {
			return err
		}
	}
	return nil
}

func (tx *WriteTx) Commit() error {
	if tx.done {
		return db.ErrTxDone
	}

	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.db.closed {
		return db.ErrClosed
	}

	for key, readVersion := range tx.reads {
		if readVersion > tx.baseVer || tx.db.currentVersion(key) != readVersion {
			return db.ErrConflict
		}
	}
	for key, value := range tx.writes {
		tx.db.applyWrite(key, value)
	}
	tx.done = true
	return nil
}

func (tx *WriteTx) Discard() {
	tx.writes = map[string]*[]byte{}
	tx.reads = map[string]uint64{}
	tx.done = true
}

func iterateEntries(entries map[string][]byte, callback func(key, value []byte) bool) error {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if !callback([]byte(key), entries[key]) {
			break
		}
	}
	return nil
}
