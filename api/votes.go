package api

import (
	"errors"
	"net/http"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/storage"
	"github.com/vocdoni/zkvote-node/web3"
)

// newProof assembles a vote proof for a raw identifier. The identifier
// never leaves the node unless a remote prover is configured.
// POST /elections/{electionId}/proofs
func (a *API) newProof(w http.ResponseWriter, r *http.Request) {
	if a.assembler == nil {
		ErrProverUnavailable.Write(w)
		return
	}
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	if _, err := a.ledger.Election(eid); err != nil {
		ledgerError(err).Write(w)
		return
	}
	req := &ProofRequest{}
	if err := decodeJSON(r, req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	tuple, err := a.assembler.AssembleVoteProof(r.Context(), req.Identifier, req.CircuitInputs)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, tuple)
}

// newVote casts a vote. When a roster is configured, commitments unknown
// to it are rejected before the proof is verified.
// POST /elections/{electionId}/votes
func (a *API) newVote(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &VoteRequest{}
	if err := decodeJSON(r, req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.CandidateID == nil {
		ErrMalformedBody.With("missing candidateId").Write(w)
		return
	}
	if req.Commitment == nil {
		ErrMalformedBody.With("missing commitment").Write(w)
		return
	}
	if req.Proof == nil {
		ErrMalformedProof.With("missing proof").Write(w)
		return
	}
	commitment, err := req.Proof.Commitment()
	if err != nil {
		ErrMalformedProof.WithErr(err).Write(w)
		return
	}
	if !commitment.Equal(req.Commitment) {
		ErrInvalidCommitment.With("commitment does not match the proof").Write(w)
		return
	}

	if a.roster != nil {
		found, err := a.roster.FindVoterByCommitment(r.Context(), commitment)
		if err != nil {
			log.Warnw("roster lookup failed", "electionId", eid.String(), "error", err)
			ErrRosterUnavailable.Write(w)
			return
		}
		if !found {
			ErrVoterNotInRoster.Write(w)
			return
		}
	}

	receipt, err := a.ledger.CastVote(r.Context(), eid, *req.CandidateID, req.Proof)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	a.mirror("vote", func(txs *web3.TxManager) error {
		return txs.Vote(receipt.CandidateID, req.Proof)
	})
	httpWriteJSON(w, receipt)
}

// receipt returns the receipt of an accepted vote.
// GET /elections/{electionId}/votes/{seq}
func (a *API) receipt(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	seq, err := uintParam(r, SequenceURLParam)
	if err != nil {
		ErrMalformedParam.Withf("invalid sequence").Write(w)
		return
	}
	receipt, err := a.ledger.Receipt(eid, seq)
	if errors.Is(err, storage.ErrNotFound) {
		ErrReceiptNotFound.Write(w)
		return
	}
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// receipts lists the receipts of the accepted votes in sequence order.
// GET /elections/{electionId}/votes
func (a *API) receipts(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	list, err := a.ledger.Receipts(eid)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &ReceiptsResponse{Receipts: list})
}
