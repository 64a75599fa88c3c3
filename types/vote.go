package types

import (
	"fmt"
	"time"
)

// ProofTuple is the proof submission shape accepted by the verifier gate:
//
//	{ a: [F, F], b: [[F, F], [F, F]], c: [F, F], publicSignals: [F, F] }
//
// where every F is a base-10 string. The inner pairs of B are reversed with
// respect to the prover's native pi_b output (x1, x0 instead of x0, x1).
// The slices are not fixed-size arrays so that malformed lengths reach the
// verifier instead of being silently padded by the JSON decoder.
type ProofTuple struct {
	A             []string   `json:"a" cbor:"0,keyasint,omitempty"`
	B             [][]string `json:"b" cbor:"1,keyasint,omitempty"`
	C             []string   `json:"c" cbor:"2,keyasint,omitempty"`
	PublicSignals []string   `json:"publicSignals" cbor:"3,keyasint,omitempty"`
}

// Index of each public signal of the voter circuit.
const (
	PublicSignalEligible = iota
	PublicSignalCommitment

	VoterPublicSignals
)

// Commitment returns the identity commitment asserted by the proof.
func (p *ProofTuple) Commitment() (*BigInt, error) {
	return p.publicSignal(PublicSignalCommitment)
}

// EligibilityFlag returns the eligibility flag asserted by the proof.
func (p *ProofTuple) EligibilityFlag() (*BigInt, error) {
	return p.publicSignal(PublicSignalEligible)
}

func (p *ProofTuple) publicSignal(i int) (*BigInt, error) {
	if p == nil || len(p.PublicSignals) != VoterPublicSignals {
		return nil, fmt.Errorf("expected %d public signals", VoterPublicSignals)
	}
	return ParseDecimal(p.PublicSignals[i])
}

// Candidate is an option of an election. VoteCount only ever increments.
type Candidate struct {
	ID        uint64 `json:"id" cbor:"0,keyasint"`
	Name      string `json:"name" cbor:"1,keyasint"`
	VoteCount uint64 `json:"voteCount" cbor:"2,keyasint"`
}

// RegistryEntry is the registry state of an identity commitment. It moves
// from registered to voted exactly once and never back.
type RegistryEntry struct {
	Commitment   *BigInt   `json:"commitment" cbor:"0,keyasint"`
	Registered   bool      `json:"registered" cbor:"1,keyasint"`
	HasVoted     bool      `json:"hasVoted" cbor:"2,keyasint"`
	RegisteredAt time.Time `json:"registeredAt" cbor:"3,keyasint"`
}

// Eligible reports whether the commitment may still vote.
func (e *RegistryEntry) Eligible() bool {
	return e != nil && e.Registered && !e.HasVoted
}

// VoteStatus is the terminal state of a vote attempt.
type VoteStatus string

const (
	VoteStatusAccepted VoteStatus = "accepted"
	VoteStatusRejected VoteStatus = "rejected"
)

// Receipt is stored for every accepted vote. Sequence orders the accepted
// votes of an election, starting at 1.
type Receipt struct {
	ElectionID  ElectionID `json:"electionId" cbor:"0,keyasint"`
	Sequence    uint64     `json:"sequence" cbor:"1,keyasint"`
	CandidateID uint64     `json:"candidateId" cbor:"2,keyasint"`
	Commitment  *BigInt    `json:"commitment" cbor:"3,keyasint"`
	VoteCount   uint64     `json:"voteCount" cbor:"4,keyasint"`
	Status      VoteStatus `json:"status" cbor:"5,keyasint"`
	Timestamp   time.Time  `json:"timestamp" cbor:"6,keyasint"`
}

// Tally is a consistent snapshot of the vote ledger of an election. The
// vote counts of the candidates always add up to SpentCommitments.
// MarkedCommitments were marked as voted administratively and are not
// counted for any candidate.
type Tally struct {
	ElectionID        ElectionID  `json:"electionId"`
	Candidates        []Candidate `json:"candidates"`
	TotalVotes        uint64      `json:"totalVotes"`
	SpentCommitments  uint64      `json:"spentCommitments"`
	MarkedCommitments uint64      `json:"markedCommitments"`
}
