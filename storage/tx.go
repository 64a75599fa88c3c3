package storage

import (
	"errors"

	"github.com/vocdoni/zkvote-node/db"
	"github.com/vocdoni/zkvote-node/types"
)

// Tx groups several artifact updates into one atomic database commit.
// Reads through the Tx see its own pending writes.
//
// The pebble backend does not detect conflicts between transactions, so
// callers that read and then update the same records must serialize their
// transactions.
type Tx struct {
	wTx db.WriteTx
}

// WriteTx starts a new transaction. It must be committed or discarded.
func (s *Storage) WriteTx() *Tx {
	return &Tx{wTx: s.db.WriteTx()}
}

// Commit applies every write of the transaction atomically.
func (t *Tx) Commit() error {
	return t.wTx.Commit()
}

// Discard drops the transaction. It is safe to call after Commit.
func (t *Tx) Discard() {
	t.wTx.Discard()
}

// Election returns the election metadata or ErrNotFound.
func (t *Tx) Election(eid types.ElectionID) (*types.Election, error) {
	return election(t.wTx, eid)
}

// NewElection stores a new election. It fails with ErrKeyAlreadyExists if
// the ID is taken.
func (t *Tx) NewElection(e *types.Election) error {
	if _, err := election(t.wTx, e.ID); err == nil {
		return ErrKeyAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return setArtifact(t.wTx, electionPrefix, electionKey(e.ID), e)
}

// Candidate returns a candidate of the election or ErrNotFound.
func (t *Tx) Candidate(eid types.ElectionID, id uint64) (*types.Candidate, error) {
	return candidate(t.wTx, eid, id)
}

// Candidates returns the candidates of the election ordered by ID.
func (t *Tx) Candidates(eid types.ElectionID) ([]types.Candidate, error) {
	return candidates(t.wTx, eid)
}

// SetCandidate stores c under its ID.
func (t *Tx) SetCandidate(eid types.ElectionID, c *types.Candidate) error {
	return setArtifact(t.wTx, candidatePrefix, candidateKey(eid, c.ID), c)
}

// RegistryEntry returns the registry entry of a commitment or ErrNotFound.
func (t *Tx) RegistryEntry(eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	return registryEntry(t.wTx, eid, commitment)
}

// SetRegistryEntry stores e under its commitment.
func (t *Tx) SetRegistryEntry(eid types.ElectionID, e *types.RegistryEntry) error {
	key, err := registryKey(eid, e.Commitment)
	if err != nil {
		return err
	}
	return setArtifact(t.wTx, registryPrefix, key, e)
}

// Counters returns the counters of the election, zero if none were stored.
func (t *Tx) Counters(eid types.ElectionID) (*Counters, error) {
	return counters(t.wTx, eid)
}

// SetCounters stores the counters of the election.
func (t *Tx) SetCounters(eid types.ElectionID, c *Counters) error {
	return setArtifact(t.wTx, counterPrefix, electionKey(eid), c)
}

// AddReceipt stores a receipt under its sequence number. Receipts are
// write-once: an existing sequence fails with ErrKeyAlreadyExists.
func (t *Tx) AddReceipt(r *types.Receipt) error {
	key := receiptKey(r.ElectionID, r.Sequence)
	var existing types.Receipt
	if err := getArtifact(t.wTx, receiptPrefix, key, &existing); err == nil {
		return ErrKeyAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return setArtifact(t.wTx, receiptPrefix, key, r)
}

func election(r db.Reader, eid types.ElectionID) (*types.Election, error) {
	e := &types.Election{}
	if err := getArtifact(r, electionPrefix, electionKey(eid), e); err != nil {
		return nil, err
	}
	return e, nil
}

func candidate(r db.Reader, eid types.ElectionID, id uint64) (*types.Candidate, error) {
	c := &types.Candidate{}
	if err := getArtifact(r, candidatePrefix, candidateKey(eid, id), c); err != nil {
		return nil, err
	}
	return c, nil
}

func candidates(r db.Reader, eid types.ElectionID) ([]types.Candidate, error) {
	list := []types.Candidate{}
	err := iterateArtifacts(r, candidatePrefix, electionKey(eid), func(c *types.Candidate) bool {
		list = append(list, *c)
		return true
	})
	return list, err
}

func registryEntry(r db.Reader, eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	key, err := registryKey(eid, commitment)
	if err != nil {
		return nil, err
	}
	e := &types.RegistryEntry{}
	if err := getArtifact(r, registryPrefix, key, e); err != nil {
		return nil, err
	}
	return e, nil
}

func counters(r db.Reader, eid types.ElectionID) (*Counters, error) {
	c := &Counters{}
	if err := getArtifact(r, counterPrefix, electionKey(eid), c); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return c, nil
}
