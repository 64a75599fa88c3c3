package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/roster"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/web3"
)

// registerVoter adds a commitment to the registry of an election. The
// commitment is either given or computed from the raw identifier; when
// both are present they must match. If a roster is configured the voter is
// added to it first, and the registration fails when the roster cannot
// store it.
// POST /elections/{electionId}/voters
func (a *API) registerVoter(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &RegisterVoterRequest{}
	if err := decodeJSON(r, req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	commitment := req.Commitment
	if req.Identifier != "" {
		computed, err := a.ids.Commit(r.Context(), req.Identifier)
		if err != nil {
			ledgerError(err).Write(w)
			return
		}
		if commitment != nil && !commitment.Equal(computed) {
			ErrInvalidCommitment.With("commitment does not match identifier").Write(w)
			return
		}
		commitment = computed
	}
	if commitment == nil {
		ErrMalformedBody.With("commitment or identifier required").Write(w)
		return
	}

	if a.roster != nil {
		err := a.roster.AddVoter(r.Context(), commitment, roster.Voter{Name: req.Name})
		switch {
		case errors.Is(err, roster.ErrVoterExists):
			log.Debugw("voter already in roster", "electionId", eid.String())
		case err != nil:
			log.Warnw("failed to add voter to roster", "electionId", eid.String(), "error", err)
			ErrRosterUnavailable.Write(w)
			return
		}
	}
	if err := a.ledger.Register(r.Context(), eid, commitment); err != nil {
		ledgerError(err).Write(w)
		return
	}
	a.mirror("registerVoter", func(txs *web3.TxManager) error {
		return txs.RegisterVoter(commitment)
	})

	entry, err := a.ledger.Entry(eid, commitment)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, entry)
}

// voter returns the registry entry of a commitment.
// GET /elections/{electionId}/voters/{commitment}
func (a *API) voter(w http.ResponseWriter, r *http.Request) {
	eid, commitment, ok := voterParams(w, r)
	if !ok {
		return
	}
	entry, err := a.ledger.Entry(eid, commitment)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, entry)
}

// markVoted spends a commitment without counting a vote.
// POST /elections/{electionId}/voters/{commitment}/voted
func (a *API) markVoted(w http.ResponseWriter, r *http.Request) {
	eid, commitment, ok := voterParams(w, r)
	if !ok {
		return
	}
	if err := a.ledger.MarkVoted(r.Context(), eid, commitment); err != nil {
		ledgerError(err).Write(w)
		return
	}
	entry, err := a.ledger.Entry(eid, commitment)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, entry)
}

// voterParams parses the election and commitment URL parameters, writing
// the error response when they are malformed.
func voterParams(w http.ResponseWriter, r *http.Request) (types.ElectionID, *types.BigInt, bool) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return "", nil, false
	}
	commitment, err := types.ParseDecimal(chi.URLParam(r, CommitmentURLParam))
	if err != nil {
		ErrMalformedCommitment.WithErr(err).Write(w)
		return "", nil, false
	}
	return eid, commitment, true
}
