// Package metadb opens a db.Database backend by type name.
package metadb

import (
	"cmp"
	"fmt"
	"os"
	"testing"

	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/db/inmemory"
	"github.com/vocdoni/zkvote-node/db/pebbledb"
)

// New opens a database of type typ. dir is ignored by the in-memory
// backend.
func New(typ, dir string) (db.Database, error) {
	opts := db.Options{Path: dir}
	switch typ {
	case db.TypePebble:
		return pebbledb.New(opts)
	case db.TypeInMem:
		return inmemory.New(opts)
	default:
		return nil, fmt.Errorf("invalid db type: %q, available types: %q, %q",
			typ, db.TypePebble, db.TypeInMem)
	}
}

// ForTest returns the backend used by tests, taken from DB_TYPE and
// defaulting to pebble.
func ForTest() (typ string) {
	return cmp.Or(os.Getenv("DB_TYPE"), db.TypePebble)
}

// NewTest opens a test database in a temporary directory that is closed
// when the test ends.
func NewTest(tb testing.TB) db.Database {
	database, err := New(ForTest(), tb.TempDir())
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := database.Close(); err != nil {
			tb.Logf("close test database: %v", err)
		}
	})
	return database
}
