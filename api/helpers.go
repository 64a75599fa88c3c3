package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/zkvote-node/crypto/hash/poseidon"
	"github.com/vocdoni/zkvote-node/identity"
	"github.com/vocdoni/zkvote-node/ledger"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/verifier"
)

// maxRequestBody bounds the size of JSON request bodies.
const maxRequestBody = 1 << 20

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
		return
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
		return
	}
	if !DisabledLogging && log.Level() == log.LogLevelDebug {
		log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
	}
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// decodeJSON reads a JSON body into out. Unknown fields are rejected.
func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// electionIDParam parses the election ID URL parameter. The literal
// "default" names the default election.
func electionIDParam(r *http.Request) (types.ElectionID, error) {
	raw := chi.URLParam(r, ElectionURLParam)
	if raw == "default" {
		return types.DefaultElectionID, nil
	}
	return types.ParseElectionID(raw)
}

func uintParam(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, name), 10, 64)
}

// ledgerError maps the errors of the core packages to API errors. Unknown
// errors are internal.
func ledgerError(err error) Error {
	switch {
	case errors.Is(err, ledger.ErrUnknownElection):
		return ErrElectionNotFound
	case errors.Is(err, ledger.ErrUnknownCandidate):
		return ErrCandidateNotFound
	case errors.Is(err, ledger.ErrIneligibleVoter):
		return ErrIneligibleVoter
	case errors.Is(err, ledger.ErrInvalidProof):
		return ErrInvalidProof
	case errors.Is(err, ledger.ErrEligibilityFlag):
		return ErrEligibilityFlag
	case errors.Is(err, ledger.ErrAlreadyRegistered):
		return ErrAlreadyRegistered
	case errors.Is(err, ledger.ErrNotRegistered):
		return ErrNotRegistered
	case errors.Is(err, ledger.ErrAlreadyVoted):
		return ErrAlreadyVoted
	case errors.Is(err, ledger.ErrInvalidCommitment):
		return ErrInvalidCommitment
	case errors.Is(err, ledger.ErrInvalidCandidate):
		return ErrInvalidCandidate
	case errors.Is(err, ledger.ErrDuplicateCandidate):
		return ErrDuplicateCandidate
	case errors.Is(err, ledger.ErrInvalidElection):
		return ErrInvalidElection
	case errors.Is(err, verifier.ErrMalformedInput):
		return ErrMalformedProof.WithErr(err)
	case errors.Is(err, identity.ErrInvalidInput):
		return ErrInvalidIdentifier.WithErr(err)
	case errors.Is(err, poseidon.ErrHashBackendUnavailable):
		return ErrHashBackendUnavailable
	case errors.Is(err, prover.ErrProofGeneration):
		return ErrProofGeneration.WithErr(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrRequestCanceled
	}
	log.Warnw("internal API error", "error", err)
	return ErrGenericInternalServerError
}
