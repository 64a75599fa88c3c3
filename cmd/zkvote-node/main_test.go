package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/circuits/voter/votertest"
	"github.com/vocdoni/zkvote-node/config"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/db/metadb"
)

func TestSetupFailureClosesDatabase(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	vkData, err := json.Marshal(votertest.VerificationKey(c))
	c.Assert(err, qt.IsNil)
	vkPath := filepath.Join(dir, "voter_vkey.json")
	c.Assert(os.WriteFile(vkPath, vkData, 0o600), qt.IsNil)

	var opened db.Database
	c.Patch(&openDatabase, func(typ, path string) (db.Database, error) {
		database, err := metadb.New(typ, path)
		opened = database
		return database, err
	})

	cfg := &Config{
		Datadir: dir,
		DB:      DBConfig{Type: db.TypeInMem},
		Circuit: CircuitConfig{VKey: vkPath},
		// there are no proving keys in the artifacts directory
		Prover: ProverConfig{Backend: config.ProverGnark},
	}
	services, err := setupServices(context.Background(), cfg)
	c.Assert(err, qt.ErrorMatches, "failed to initialize gnark prover: .*")
	c.Assert(services, qt.IsNil)
	c.Assert(opened, qt.IsNotNil)
	_, err = opened.Get([]byte("key"))
	c.Assert(errors.Is(err, db.ErrClosed), qt.IsTrue)
}
