package ledger

import (
	"context"
	"errors"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/storage"
	"github.com/vocdoni/zkvote-node/types"
)

// Register adds a commitment to the registry of an election as eligible.
func (l *Ledger) Register(ctx context.Context, eid types.ElectionID, commitment *types.BigInt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validCommitment(commitment); err != nil {
		return err
	}
	if _, err := l.Election(eid); err != nil {
		return err
	}

	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	tx := l.st.WriteTx()
	defer tx.Discard()

	if _, err := tx.RegistryEntry(eid, commitment); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	counters, err := tx.Counters(eid)
	if err != nil {
		return err
	}
	counters.Registered++
	entry := &types.RegistryEntry{
		Commitment:   commitment,
		Registered:   true,
		RegisteredAt: l.now(),
	}
	if err := tx.SetRegistryEntry(eid, entry); err != nil {
		return err
	}
	if err := tx.SetCounters(eid, counters); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debugw("commitment registered", "electionId", eid.String())
	return nil
}

// IsEligible reports whether commitment is registered and has not voted.
func (l *Ledger) IsEligible(eid types.ElectionID, commitment *types.BigInt) bool {
	entry, err := l.st.RegistryEntry(eid, commitment)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warnw("registry lookup failed", "electionId", eid.String(), "error", err)
		}
		return false
	}
	return entry.Eligible()
}

// Entry returns the registry entry of a commitment, or ErrNotRegistered.
func (l *Ledger) Entry(eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	if err := validCommitment(commitment); err != nil {
		return nil, err
	}
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	entry, err := l.st.RegistryEntry(eid, commitment)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	return entry, err
}

// MarkVoted spends a commitment without counting a vote, for voters that
// voted through another channel. The commitment is reported in
// Tally.MarkedCommitments.
func (l *Ledger) MarkVoted(ctx context.Context, eid types.ElectionID, commitment *types.BigInt) error {
	if err := validCommitment(commitment); err != nil {
		return err
	}
	if _, err := l.Election(eid); err != nil {
		return err
	}
	unlock, err := l.voters.Lock(ctx, voterKey(eid, commitment))
	if err != nil {
		return err
	}
	defer unlock()

	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	tx := l.st.WriteTx()
	defer tx.Discard()

	entry, err := markVoted(tx, eid, commitment)
	if err != nil {
		return err
	}
	counters, err := tx.Counters(eid)
	if err != nil {
		return err
	}
	counters.Marked++
	if err := tx.SetRegistryEntry(eid, entry); err != nil {
		return err
	}
	if err := tx.SetCounters(eid, counters); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Infow("commitment marked as voted", "electionId", eid.String())
	return nil
}

// markVoted loads the entry of commitment within tx and returns it with
// HasVoted set. It does not write it.
func markVoted(tx *storage.Tx, eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	entry, err := tx.RegistryEntry(eid, commitment)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	if entry.HasVoted {
		return nil, ErrAlreadyVoted
	}
	entry.HasVoted = true
	return entry, nil
}
