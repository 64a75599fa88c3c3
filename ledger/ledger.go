// Package ledger implements the voter registry and the vote ledger of the
// node. Every election keeps its own registry of identity commitments, its
// candidates and their vote counts.
//
// Accepting a vote marks the commitment as voted, increments the candidate
// count and stores a receipt in a single storage transaction. Mutations are
// ordered by a ledger-wide write lock and vote attempts for the same
// commitment are serialized by a per-commitment lock, so at most one
// attempt per commitment is ever accepted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/storage"
	"github.com/vocdoni/zkvote-node/types"
)

// ProofVerifier checks a vote proof. It returns false for a well formed
// proof that does not verify, and an error for malformed input.
type ProofVerifier interface {
	VerifyTuple(p *types.ProofTuple) (bool, error)
}

// Ledger is safe for concurrent use.
type Ledger struct {
	st       *storage.Storage
	verifier ProofVerifier
	// writeLock orders every read-modify-write cycle on the storage
	writeLock sync.Mutex
	// voters serializes vote attempts per election and commitment
	voters *keyedMutex
	now    func() time.Time
}

// New returns a Ledger on top of st, creating the default election if it
// does not exist yet.
func New(st *storage.Storage, verifier ProofVerifier) (*Ledger, error) {
	if st == nil || verifier == nil {
		return nil, fmt.Errorf("ledger requires a storage and a verifier")
	}
	l := &Ledger{
		st:       st,
		verifier: verifier,
		voters:   newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if _, err := st.Election(types.DefaultElectionID); errors.Is(err, storage.ErrNotFound) {
		if err := l.newElection(types.DefaultElectionID, "default"); err != nil &&
			!errors.Is(err, storage.ErrKeyAlreadyExists) {
			return nil, fmt.Errorf("create default election: %w", err)
		}
	} else if err != nil {
		return nil, err
	}
	return l, nil
}

// Storage returns the storage of the ledger.
func (l *Ledger) Storage() *storage.Storage {
	return l.st
}

// CreateElection starts a new election with a random ID.
func (l *Ledger) CreateElection(ctx context.Context, name string) (*types.Election, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidElection
	}
	id := types.NewElectionID()
	if err := l.newElection(id, name); err != nil {
		return nil, err
	}
	log.Infow("election created", "electionId", id.String(), "name", name)
	return l.st.Election(id)
}

func (l *Ledger) newElection(id types.ElectionID, name string) error {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	tx := l.st.WriteTx()
	defer tx.Discard()
	if err := tx.NewElection(&types.Election{ID: id, Name: name, CreatedAt: l.now()}); err != nil {
		return err
	}
	return tx.Commit()
}

// Election returns the metadata of an election.
func (l *Ledger) Election(id types.ElectionID) (*types.Election, error) {
	if id.Validate() != nil {
		return nil, ErrUnknownElection
	}
	e, err := l.st.Election(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownElection
	}
	return e, err
}

// Elections lists every election, oldest first.
func (l *Ledger) Elections() ([]types.Election, error) {
	return l.st.Elections()
}

// TotalVotes returns the number of accepted votes of an election.
func (l *Ledger) TotalVotes(id types.ElectionID) (uint64, error) {
	if _, err := l.Election(id); err != nil {
		return 0, err
	}
	counters, err := l.st.Counters(id)
	if err != nil {
		return 0, err
	}
	return counters.Votes, nil
}

// AddCandidate appends a candidate to an election. IDs are assigned
// sequentially starting at 0. Names are trimmed and must be unique within
// the election.
func (l *Ledger) AddCandidate(ctx context.Context, eid types.ElectionID, name string) (*types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidCandidate
	}
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}

	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	tx := l.st.WriteTx()
	defer tx.Discard()

	existing, err := tx.Candidates(eid)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if c.Name == name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCandidate, name)
		}
	}
	counters, err := tx.Counters(eid)
	if err != nil {
		return nil, err
	}
	candidate := &types.Candidate{ID: counters.Candidates, Name: name}
	counters.Candidates++
	if err := tx.SetCandidate(eid, candidate); err != nil {
		return nil, err
	}
	if err := tx.SetCounters(eid, counters); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Infow("candidate added", "electionId", eid.String(), "id", candidate.ID, "name", name)
	return candidate, nil
}

// Candidate returns a candidate and its vote count.
func (l *Ledger) Candidate(eid types.ElectionID, id uint64) (*types.Candidate, error) {
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	c, err := l.st.Candidate(eid, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownCandidate
	}
	return c, err
}

// Candidates returns the candidates of an election ordered by ID.
func (l *Ledger) Candidates(eid types.ElectionID) ([]types.Candidate, error) {
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	return l.st.Candidates(eid)
}

// CandidateNames returns the candidate names ordered by ID.
func (l *Ledger) CandidateNames(eid types.ElectionID) ([]string, error) {
	list, err := l.Candidates(eid)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return names, nil
}

// Tally returns a consistent snapshot of the counts of an election.
func (l *Ledger) Tally(eid types.ElectionID) (*types.Tally, error) {
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	// no commit can interleave with the reads below
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	candidates, err := l.st.Candidates(eid)
	if err != nil {
		return nil, err
	}
	counters, err := l.st.Counters(eid)
	if err != nil {
		return nil, err
	}
	return &types.Tally{
		ElectionID:        eid,
		Candidates:        candidates,
		TotalVotes:        counters.Votes,
		SpentCommitments:  counters.Spent,
		MarkedCommitments: counters.Marked,
	}, nil
}

// Receipt returns the receipt of the accepted vote with sequence seq.
func (l *Ledger) Receipt(eid types.ElectionID, seq uint64) (*types.Receipt, error) {
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	return l.st.Receipt(eid, seq)
}

// Receipts returns the receipts of the accepted votes of an election in
// sequence order.
func (l *Ledger) Receipts(eid types.ElectionID) ([]types.Receipt, error) {
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	list := []types.Receipt{}
	err := l.st.Receipts(eid, func(r *types.Receipt) bool {
		list = append(list, *r)
		return true
	})
	return list, err
}

// validCommitment checks that c is an element of the BN254 scalar field.
func validCommitment(c *types.BigInt) error {
	if !c.InField(ecc.BN254.ScalarField()) {
		return ErrInvalidCommitment
	}
	return nil
}

func voterKey(eid types.ElectionID, c *types.BigInt) string {
	return eid.String() + "/" + (*big.Int)(c).String()
}
