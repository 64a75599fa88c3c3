package api

import (
	"net/http"

	"github.com/vocdoni/zkvote-node/web3"
)

// newElection creates an election.
// POST /elections
func (a *API) newElection(w http.ResponseWriter, r *http.Request) {
	req := &NewElectionRequest{}
	if err := decodeJSON(r, req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	election, err := a.ledger.CreateElection(r.Context(), req.Name)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &ElectionResponse{Election: *election})
}

// elections lists every election.
// GET /elections
func (a *API) elections(w http.ResponseWriter, r *http.Request) {
	list, err := a.ledger.Elections()
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &ElectionsResponse{Elections: list})
}

// election returns an election with its vote total.
// GET /elections/{electionId}
func (a *API) election(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	election, err := a.ledger.Election(eid)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	total, err := a.ledger.TotalVotes(eid)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &ElectionResponse{Election: *election, TotalVotes: total})
}

// tally returns the per candidate counts of an election.
// GET /elections/{electionId}/tally
func (a *API) tally(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	tally, err := a.ledger.Tally(eid)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, tally)
}

// newCandidate adds a candidate to an election. Candidate names are unique
// within the election.
// POST /elections/{electionId}/candidates
func (a *API) newCandidate(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &NewCandidateRequest{}
	if err := decodeJSON(r, req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	candidate, err := a.ledger.AddCandidate(r.Context(), eid, req.Name)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	a.mirror("addCandidate", func(txs *web3.TxManager) error {
		return txs.AddCandidate(candidate.Name)
	})
	httpWriteJSON(w, candidate)
}

// candidates lists the candidates of an election ordered by ID.
// GET /elections/{electionId}/candidates
func (a *API) candidates(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	list, err := a.ledger.Candidates(eid)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CandidatesResponse{Candidates: list})
}

// candidate returns a candidate with its vote count.
// GET /elections/{electionId}/candidates/{candidateId}
func (a *API) candidate(w http.ResponseWriter, r *http.Request) {
	eid, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	id, err := uintParam(r, CandidateURLParam)
	if err != nil {
		ErrMalformedParam.Withf("invalid candidate id").Write(w)
		return
	}
	candidate, err := a.ledger.Candidate(eid, id)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, candidate)
}
