package inmemory

import (
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/db/internal/dbtest"
	"github.com/vocdoni/zkvote-node/db/prefixeddb"
)

func newTestDB(t *testing.T) *InMemoryDB {
	database, err := New(db.Options{})
	qt.Assert(t, err, qt.IsNil)
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

func TestConcurrentWriteTx(t *testing.T) {
	dbtest.TestConcurrentWriteTx(t, newTestDB(t))
}

func TestConflictRetry(t *testing.T) {
	c := qt.New(t)
	database := newTestDB(t)

	increment := func() error {
		for {
			tx := database.WriteTx()
			v, err := tx.Get([]byte("n"))
			if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
				return err
			}
			n := byte(0)
			if len(v) == 1 {
				n = v[0]
			}
			if err := tx.Set([]byte("n"), []byte{n + 1}); err != nil {
				return err
			}
			err = tx.Commit()
			if errors.Is(err, db.ErrConflict) {
				continue
			}
			return err
		}
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Check(increment(), qt.IsNil)
		}()
	}
	wg.Wait()

	v, err := database.Get([]byte("n"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte{50})
}

func TestCompactAndClose(t *testing.T) {
	c := qt.New(t)
	database := newTestDB(t)

	tx := database.WriteTx()
	c.Assert(tx.Set([]byte("a"), []byte("1")), qt.IsNil)
	c.Assert(tx.Set([]byte("b"), []byte("2")), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)
	tx = database.WriteTx()
	c.Assert(tx.Delete([]byte("a")), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	c.Assert(database.Compact(), qt.IsNil)
	_, err := database.Get([]byte("a"))
	c.Assert(errors.Is(err, db.ErrKeyNotFound), qt.IsTrue)
	v, err := database.Get([]byte("b"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(v), qt.Equals, "2")

	c.Assert(database.Close(), qt.IsNil)
	_, err = database.Get([]byte("b"))
	c.Assert(errors.Is(err, db.ErrClosed), qt.IsTrue)
}
