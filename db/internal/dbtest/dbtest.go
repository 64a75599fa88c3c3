// Package dbtest holds the behaviour tests shared by the db backends.
package dbtest

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/db"
)

// TestWriteTx checks read-your-writes and commit visibility.
func TestWriteTx(t *testing.T, database db.Database) {
	c := qt.New(t)

	wTx := database.WriteTx()
	_, err := wTx.Get([]byte("a"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)

	c.Assert(wTx.Set([]byte("a"), []byte("b")), qt.IsNil)
	v, err := wTx.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	// not visible before commit
	_, err = database.Get([]byte("a"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)

	c.Assert(wTx.Commit(), qt.IsNil)
	c.Assert(errors.Is(wTx.Commit(), db.ErrTxDone), qt.IsTrue)
	wTx.Discard()

	v, err = database.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	// a returned value is a copy
	v[0] = 'x'
	v, err = database.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	wTx = database.WriteTx()
	c.Assert(wTx.Delete([]byte("a")), qt.IsNil)
	_, err = wTx.Get([]byte("a"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)
	wTx.Discard()

	// discarded writes are lost
	v, err = database.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	wTx = database.WriteTx()
	c.Assert(wTx.Delete([]byte("a")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)
	_, err = database.Get([]byte("a"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)
}

// TestIterate checks prefix filtering, ordering and early stop.
func TestIterate(t *testing.T, database db.Database) {
	c := qt.New(t)

	wTx := database.WriteTx()
	for i := 9; i >= 0; i-- {
		c.Assert(wTx.Set([]byte(fmt.Sprintf("p/%d", i)), []byte{byte(i)}), qt.IsNil)
		c.Assert(wTx.Set([]byte(fmt.Sprintf("q/%d", i)), []byte{byte(i)}), qt.IsNil)
	}
	c.Assert(wTx.Commit(), qt.IsNil)

	var keys []string
	err := database.Iterate([]byte("p/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.HasLen, 10)
	c.Assert(keys[0], qt.Equals, "p/0")
	c.Assert(keys[9], qt.Equals, "p/9")

	count := 0
	err = database.Iterate([]byte("q/"), func(k, v []byte) bool {
		count++
		return count < 3
	})
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 3)

	// the transaction view merges pending writes and deletions
	wTx = database.WriteTx()
	defer wTx.Discard()
	c.Assert(wTx.Delete([]byte("p/0")), qt.IsNil)
	c.Assert(wTx.Set([]byte("p/91"), []byte{91}), qt.IsNil)
	keys = keys[:0]
	err = wTx.Iterate([]byte("p/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.HasLen, 10)
	c.Assert(keys[0], qt.Equals, "p/1")
	c.Assert(keys[9], qt.Equals, "p/91")
}

// TestWriteTxApply checks that Apply carries the writes of another
// transaction.
func TestWriteTxApply(t *testing.T, database db.Database) {
	c := qt.New(t)

	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("a"), []byte("a")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	wTx = database.WriteTx()
	c.Assert(wTx.Set([]byte("b"), []byte("b")), qt.IsNil)
	other := database.WriteTx()
	c.Assert(other.Set([]byte("c"), []byte("c")), qt.IsNil)
	c.Assert(other.Delete([]byte("a")), qt.IsNil)

	c.Assert(wTx.Apply(other), qt.IsNil)
	other.Discard()
	c.Assert(wTx.Commit(), qt.IsNil)

	for _, k := range []string{"b", "c"} {
		v, err := database.Get([]byte(k))
		c.Assert(err, qt.IsNil)
		c.Assert(string(v), qt.Equals, k)
	}
	_, err := database.Get([]byte("a"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)
}

// TestWriteTxApplyPrefixed checks Apply across a prefixed view of the
// same database.
func TestWriteTxApplyPrefixed(t *testing.T, database, prefixed db.Database) {
	c := qt.New(t)

	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("a"), []byte("plain")), qt.IsNil)
	pTx := prefixed.WriteTx()
	c.Assert(pTx.Set([]byte("a"), []byte("prefixed")), qt.IsNil)

	c.Assert(wTx.Apply(pTx), qt.IsNil)
	pTx.Discard()
	c.Assert(wTx.Commit(), qt.IsNil)

	v, err := database.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(v), qt.Equals, "plain")
	v, err = prefixed.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(v), qt.Equals, "prefixed")

	var keys []string
	err = prefixed.Iterate(nil, func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.DeepEquals, []string{"a"})
}

// TestConcurrentWriteTx checks that of two transactions updating the same
// key only the first to commit succeeds. Only backends with conflict
// detection pass it.
func TestConcurrentWriteTx(t *testing.T, database db.Database) {
	c := qt.New(t)

	first := database.WriteTx()
	second := database.WriteTx()
	for _, tx := range []db.WriteTx{first, second} {
		_, err := tx.Get([]byte("counter"))
		c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)
		c.Assert(tx.Set([]byte("counter"), []byte{1}), qt.IsNil)
	}
	c.Assert(first.Commit(), qt.IsNil)
	c.Assert(errors.Is(second.Commit(), db.ErrConflict), qt.IsTrue)
	second.Discard()

	v, err := database.Get([]byte("counter"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte{1})
}
