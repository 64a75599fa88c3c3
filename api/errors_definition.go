//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 401, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap, DON'T fill in the gap, that code was used in
// the past for some error and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound     = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody        = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedParam       = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrInvalidIdentifier    = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid voter identifier")}
	ErrElectionNotFound     = Error{Code: 40005, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("election not found")}
	ErrCandidateNotFound    = Error{Code: 40006, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("candidate not found")}
	ErrIneligibleVoter      = Error{Code: 40007, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("voter is not eligible")}
	ErrInvalidProof         = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid proof")}
	ErrMalformedProof       = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed proof")}
	ErrEligibilityFlag      = Error{Code: 40010, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("proof does not assert eligibility")}
	ErrAlreadyRegistered    = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voter already registered")}
	ErrNotRegistered        = Error{Code: 40012, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("voter not registered")}
	ErrAlreadyVoted         = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voter already voted")}
	ErrInvalidCommitment    = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid commitment")}
	ErrInvalidCandidate     = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid candidate name")}
	ErrDuplicateCandidate   = Error{Code: 40016, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("candidate already exists")}
	ErrInvalidElection      = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid election name")}
	ErrProofGeneration      = Error{Code: 40018, HTTPstatus: http.StatusUnprocessableEntity, Err: fmt.Errorf("proof generation failed")}
	ErrUnauthorized         = Error{Code: 40019, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("unauthorized")}
	ErrVoterNotInRoster     = Error{Code: 40020, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("voter not in roster")}
	ErrReceiptNotFound      = Error{Code: 40021, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("receipt not found")}
	ErrMalformedElectionID  = Error{Code: 40022, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed election ID")}
	ErrMalformedCommitment  = Error{Code: 40023, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed commitment")}
	ErrRequestCanceled      = Error{Code: 40024, HTTPstatus: http.StatusRequestTimeout, Err: fmt.Errorf("request canceled")}
	ErrAdminDisabled        = Error{Code: 40025, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("admin endpoints are disabled")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrHashBackendUnavailable     = Error{Code: 50003, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("hash backend unavailable")}
	ErrProverUnavailable          = Error{Code: 50004, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("prover not configured")}
	ErrRosterUnavailable          = Error{Code: 50005, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("voter roster unavailable")}
)
