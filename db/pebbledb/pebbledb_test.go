package pebbledb

import (
	"errors"
	"testing"

	"github.com/cockroachdb/pebble"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/db/internal/dbtest"
	"github.com/vocdoni/zkvote-node/db/prefixeddb"
)

func newTestDB(t *testing.T) *PebbleDB {
	database, err := New(db.Options{Path: t.TempDir()})
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestWriteTx(t *testing.T) {
	dbtest.TestWriteTx(t, newTestDB(t))
}

func TestIterate(t *testing.T) {
	dbtest.TestIterate(t, newTestDB(t))
}

func TestWriteTxApply(t *testing.T) {
	dbtest.TestWriteTxApply(t, newTestDB(t))
}

func TestWriteTxApplyPrefixed(t *testing.T) {
	database := newTestDB(t)
	dbtest.TestWriteTxApplyPrefixed(t, database, prefixeddb.NewPrefixedDatabase(database, []byte("one")))
}

// pebble batches do not detect conflicts, so dbtest.TestConcurrentWriteTx
// does not apply here.

func TestReopen(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()

	database, err := New(db.Options{Path: dir})
	c.Assert(err, qt.IsNil)
	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("value")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)
	c.Assert(database.Compact(), qt.IsNil)
	c.Assert(database.Close(), qt.IsNil)

	database, err = New(db.Options{Path: dir})
	c.Assert(err, qt.IsNil)
	defer database.Close()
	v, err := database.Get([]byte("key"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(v), qt.Equals, "value")
}

func TestClosedDB(t *testing.T) {
	c := qt.New(t)

	database, err := New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("value")), qt.IsNil)

	c.Assert(database.Close(), qt.IsNil)
	// closing twice is fine
	c.Assert(database.Close(), qt.IsNil)

	_, err = database.Get([]byte("key"))
	c.Assert(errors.Is(err, db.ErrClosed), qt.IsTrue)
	err = database.Iterate(nil, func(k, v []byte) bool { return true })
	c.Assert(errors.Is(err, db.ErrClosed), qt.IsTrue)
	c.Assert(errors.Is(database.Compact(), db.ErrClosed), qt.IsTrue)

	_, err = wTx.Get([]byte("key"))
	c.Assert(errors.Is(err, db.ErrClosed), qt.IsTrue)
	c.Assert(errors.Is(wTx.Commit(), db.ErrClosed), qt.IsTrue)
}

func TestKeyUpperBound(t *testing.T) {
	c := qt.New(t)
	c.Assert(keyUpperBound([]byte("ab")), qt.DeepEquals, []byte("ac"))
	c.Assert(keyUpperBound([]byte{1, 0xff}), qt.DeepEquals, []byte{2})
	c.Assert(keyUpperBound([]byte{0xff, 0xff}), qt.IsNil)
	c.Assert(keyUpperBound(nil), qt.IsNil)
}

func TestFailedCommitReleasesBatch(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	database, err := New(db.Options{Path: dir})
	c.Assert(err, qt.IsNil)
	c.Assert(database.Close(), qt.IsNil)

	// a read-only pebble rejects every batch commit
	pdb, err := pebble.Open(dir, &pebble.Options{ReadOnly: true})
	c.Assert(err, qt.IsNil)
	readOnly := &PebbleDB{db: pdb}
	defer readOnly.Close()

	wTx := readOnly.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("value")), qt.IsNil)
	err = wTx.Commit()
	c.Assert(errors.Is(err, pebble.ErrReadOnly), qt.IsTrue, qt.Commentf("got %v", err))
	c.Assert(wTx.(*WriteTx).batch, qt.IsNil)

	wTx.Discard()
	c.Assert(errors.Is(wTx.Commit(), db.ErrTxDone), qt.IsTrue)
	_, err = readOnly.Get([]byte("key"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)
}
