package api

import (
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// InfoResponse is returned by GET /info.
type InfoResponse struct {
	VerificationKey *circomgnark.CircomVerificationKey `json:"verificationKey"`
	NPublic         int                                `json:"nPublic"`
	DefaultElection types.ElectionID                   `json:"defaultElection"`
	Contract        string                             `json:"contract,omitempty"`
	ProverEnabled   bool                               `json:"proverEnabled"`
}

// CommitmentRequest carries a raw voter identifier.
type CommitmentRequest struct {
	Identifier string `json:"identifier"`
}

// CommitmentResponse carries an identity commitment.
type CommitmentResponse struct {
	Commitment *types.BigInt `json:"commitment"`
}

// NewElectionRequest is the body of POST /elections.
type NewElectionRequest struct {
	Name string `json:"name"`
}

// ElectionsResponse lists the elections.
type ElectionsResponse struct {
	Elections []types.Election `json:"elections"`
}

// ElectionResponse is an election with its vote total.
type ElectionResponse struct {
	types.Election
	TotalVotes uint64 `json:"totalVotes"`
}

// NewCandidateRequest is the body of POST /elections/{electionId}/candidates.
type NewCandidateRequest struct {
	Name string `json:"name"`
}

// ReceiptsResponse lists the receipts of the accepted votes of an election.
type ReceiptsResponse struct {
	Receipts []types.Receipt `json:"receipts"`
}

// CandidatesResponse lists the candidates of an election.
type CandidatesResponse struct {
	Candidates []types.Candidate `json:"candidates"`
}

// RegisterVoterRequest registers a voter either by commitment or by raw
// identifier. When both are given they must match. Name is only stored in
// the roster.
type RegisterVoterRequest struct {
	Commitment *types.BigInt `json:"commitment,omitempty"`
	Identifier string        `json:"identifier,omitempty"`
	Name       string        `json:"name,omitempty"`
}

// ProofRequest is the body of POST /elections/{electionId}/proofs.
type ProofRequest struct {
	Identifier    string        `json:"identifier"`
	CircuitInputs prover.Inputs `json:"circuitInputs,omitempty"`
}

// VoteRequest is the body of POST /elections/{electionId}/votes. The
// commitment must be the one asserted by the proof.
type VoteRequest struct {
	CandidateID *uint64           `json:"candidateId"`
	Commitment  *types.BigInt     `json:"commitment"`
	Proof       *types.ProofTuple `json:"proof"`
}
