package ledger

import "errors"

// Vote rejections. CastVote returns them without changing any state.
var (
	ErrUnknownCandidate = errors.New("unknown candidate")
	// ErrIneligibleVoter covers both unregistered commitments and
	// commitments that already voted, without telling them apart.
	ErrIneligibleVoter = errors.New("ineligible voter")
	ErrInvalidProof    = errors.New("invalid proof")
	ErrEligibilityFlag = errors.New("eligibility flag not asserted")
)

// Administrative errors.
var (
	ErrAlreadyRegistered  = errors.New("commitment already registered")
	ErrNotRegistered      = errors.New("commitment not registered")
	ErrAlreadyVoted       = errors.New("commitment already voted")
	ErrInvalidCommitment  = errors.New("commitment is not a field element")
	ErrUnknownElection    = errors.New("unknown election")
	ErrInvalidCandidate   = errors.New("invalid candidate name")
	ErrDuplicateCandidate = errors.New("duplicate candidate name")
	ErrInvalidElection    = errors.New("invalid election name")
)
