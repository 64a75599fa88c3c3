package api

import (
	"net/http"

	"github.com/vocdoni/zkvote-node/types"
)

// info returns the verification key and the node capabilities.
// GET /info
func (a *API) info(w http.ResponseWriter, r *http.Request) {
	resp := &InfoResponse{
		VerificationKey: a.vk,
		NPublic:         a.vk.NPublic,
		DefaultElection: types.DefaultElectionID,
		ProverEnabled:   a.assembler != nil,
	}
	if a.contract != nil {
		resp.Contract = a.contract.Address.Hex()
	}
	httpWriteJSON(w, resp)
}

// newCommitment computes the identity commitment of a raw identifier. The
// identifier is not stored.
// POST /commitments
func (a *API) newCommitment(w http.ResponseWriter, r *http.Request) {
	req := &CommitmentRequest{}
	if err := decodeJSON(r, req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	commitment, err := a.ids.Commit(r.Context(), req.Identifier)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CommitmentResponse{Commitment: commitment})
}
