/*
Package storage persists the election artifacts of the node on a key-value
database.

# Storage Organization

Every key is namespaced by a prefix and, except for elections, scoped by the
16 raw bytes of the election ID:

  - e/ : electionID → Election metadata
  - c/ : electionID + candidateID (8 bytes, big endian) → Candidate
  - r/ : electionID + commitment (32 bytes, big endian) → RegistryEntry
  - v/ : electionID + sequence (8 bytes, big endian) → Receipt
  - n/ : electionID → Counters

Records are encoded as deterministic CBOR. Elections and receipts never
change once written, so they are kept in an LRU cache after the first read.
*/
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/db/prefixeddb"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrKeyAlreadyExists = errors.New("key already exists")

	electionPrefix  = []byte("e/")
	candidatePrefix = []byte("c/")
	registryPrefix  = []byte("r/")
	receiptPrefix   = []byte("v/")
	counterPrefix   = []byte("n/")
)

const (
	cacheSize     = 1000
	commitmentLen = 32
)

// Counters are the per-election aggregates updated together with the
// records they count.
type Counters struct {
	// Candidates is the number of candidates, and the ID of the next one.
	Candidates uint64 `cbor:"0,keyasint"`
	// Votes is the number of accepted votes, and the sequence of the last
	// receipt.
	Votes uint64 `cbor:"1,keyasint"`
	// Registered is the number of registered commitments.
	Registered uint64 `cbor:"2,keyasint"`
	// Spent is the number of commitments spent by an accepted vote.
	Spent uint64 `cbor:"3,keyasint"`
	// Marked is the number of commitments marked as voted by an
	// administrator, without a vote.
	Marked uint64 `cbor:"4,keyasint"`
}

// Storage gives typed access to the election artifacts.
type Storage struct {
	db    db.Database
	cache *lru.Cache[string, any]
}

// New creates a Storage on top of database.
func New(database db.Database) *Storage {
	cache, err := lru.New[string, any](cacheSize)
	if err != nil {
		log.Fatalf("failed to create LRU cache: %v", err)
	}
	return &Storage{db: database, cache: cache}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("failed to close storage", "error", err)
	}
}

// DB returns the underlying database.
func (s *Storage) DB() db.Database {
	return s.db
}

func electionKey(eid types.ElectionID) []byte {
	return eid.Bytes()
}

func electionScoped(eid types.ElectionID, suffix []byte) []byte {
	b := eid.Bytes()
	key := make([]byte, 0, len(b)+len(suffix))
	key = append(key, b...)
	return append(key, suffix...)
}

func candidateKey(eid types.ElectionID, id uint64) []byte {
	return electionScoped(eid, binary.BigEndian.AppendUint64(nil, id))
}

func receiptKey(eid types.ElectionID, seq uint64) []byte {
	return electionScoped(eid, binary.BigEndian.AppendUint64(nil, seq))
}

func registryKey(eid types.ElectionID, commitment *types.BigInt) ([]byte, error) {
	if commitment == nil || commitment.MathBigInt().Sign() < 0 ||
		commitment.MathBigInt().BitLen() > commitmentLen*8 {
		return nil, fmt.Errorf("invalid commitment %v", commitment)
	}
	return electionScoped(eid, commitment.MathBigInt().FillBytes(make([]byte, commitmentLen))), nil
}

func cacheKey(prefix, key []byte) string {
	return string(prefix) + string(key)
}

// getArtifact decodes the artifact stored at prefix+key into out. It
// returns ErrNotFound if the key does not exist.
func getArtifact(r db.Reader, prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(r, prefix).Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := DecodeArtifact(data, out); err != nil {
		return fmt.Errorf("could not decode artifact: %w", err)
	}
	return nil
}

// setArtifact stores the encoded artifact at prefix+key within wTx.
func setArtifact(wTx db.WriteTx, prefix, key []byte, artifact any) error {
	data, err := EncodeArtifact(artifact)
	if err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, prefix).Set(key, data)
}

// iterateArtifacts decodes, in key order, every artifact under prefix+scope
// until fn returns false.
func iterateArtifacts[T any](r db.Reader, prefix, scope []byte, fn func(*T) bool) error {
	var decodeErr error
	err := prefixeddb.NewPrefixedReader(r, prefix).Iterate(scope, func(k, v []byte) bool {
		item := new(T)
		if err := DecodeArtifact(v, item); err != nil {
			decodeErr = fmt.Errorf("could not decode artifact %x: %w", k, err)
			return false
		}
		return fn(item)
	})
	if err != nil {
		return err
	}
	return decodeErr
}
