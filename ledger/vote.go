package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/storage"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/verifier"
)

// CastVote runs a vote attempt for candidateID with the given proof:
//
//  1. the candidate must exist, else ErrUnknownCandidate;
//  2. the commitment in publicSignals[1] must be eligible, else
//     ErrIneligibleVoter;
//  3. the proof must verify, else ErrInvalidProof, or an error wrapping
//     verifier.ErrMalformedInput for malformed input;
//  4. publicSignals[0] must be 1, else ErrEligibilityFlag;
//  5. the commitment is marked as voted, the candidate count incremented
//     and a receipt stored, all in one storage transaction.
//
// A rejected attempt returns a nil receipt and leaves the state untouched.
func (l *Ledger) CastVote(ctx context.Context, eid types.ElectionID, candidateID uint64,
	proof *types.ProofTuple,
) (*types.Receipt, error) {
	receipt, err := l.castVote(ctx, eid, candidateID, proof)
	if err != nil {
		log.Debugw("vote rejected", "electionId", eid.String(), "candidateId", candidateID, "error", err)
		return nil, err
	}
	log.Infow("vote accepted",
		"electionId", eid.String(),
		"candidateId", candidateID,
		"sequence", receipt.Sequence,
		"voteCount", receipt.VoteCount)
	return receipt, nil
}

func (l *Ledger) castVote(ctx context.Context, eid types.ElectionID, candidateID uint64,
	proof *types.ProofTuple,
) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := l.Election(eid); err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, fmt.Errorf("%w: nil proof", verifier.ErrMalformedInput)
	}

	// 1. candidate
	if _, err := l.st.Candidate(eid, candidateID); errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownCandidate
	} else if err != nil {
		return nil, err
	}

	// 2. eligibility, held until the vote is committed or rejected
	commitment, err := proof.Commitment()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", verifier.ErrMalformedInput, err)
	}
	if validCommitment(commitment) != nil {
		return nil, fmt.Errorf("%w: commitment out of field", verifier.ErrMalformedInput)
	}
	unlock, err := l.voters.Lock(ctx, voterKey(eid, commitment))
	if err != nil {
		return nil, err
	}
	defer unlock()
	if !l.IsEligible(eid, commitment) {
		return nil, ErrIneligibleVoter
	}

	// 3. proof
	ok, err := l.verifier.VerifyTuple(proof)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidProof
	}

	// 4. eligibility flag
	flag, err := proof.EligibilityFlag()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", verifier.ErrMalformedInput, err)
	}
	if !flag.Equal(types.NewInt(1)) {
		return nil, ErrEligibilityFlag
	}

	// 5. atomic commit
	return l.commitVote(eid, candidateID, commitment)
}

func (l *Ledger) commitVote(eid types.ElectionID, candidateID uint64, commitment *types.BigInt) (*types.Receipt, error) {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	tx := l.st.WriteTx()
	defer tx.Discard()

	entry, err := markVoted(tx, eid, commitment)
	if errors.Is(err, ErrNotRegistered) || errors.Is(err, ErrAlreadyVoted) {
		// an administrative change since the eligibility check
		return nil, ErrIneligibleVoter
	}
	if err != nil {
		return nil, err
	}
	candidate, err := tx.Candidate(eid, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load candidate %d: %w", candidateID, err)
	}
	counters, err := tx.Counters(eid)
	if err != nil {
		return nil, err
	}

	candidate.VoteCount++
	counters.Votes++
	counters.Spent++
	receipt := &types.Receipt{
		ElectionID:  eid,
		Sequence:    counters.Votes,
		CandidateID: candidateID,
		Commitment:  commitment,
		VoteCount:   candidate.VoteCount,
		Status:      types.VoteStatusAccepted,
		Timestamp:   l.now(),
	}

	if err := tx.SetRegistryEntry(eid, entry); err != nil {
		return nil, err
	}
	if err := tx.SetCandidate(eid, candidate); err != nil {
		return nil, err
	}
	if err := tx.SetCounters(eid, counters); err != nil {
		return nil, err
	}
	if err := tx.AddReceipt(receipt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit vote: %w", err)
	}
	return receipt, nil
}
