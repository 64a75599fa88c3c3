// Package roster looks up voters in the external voter roster, the
// directory the registration authority keeps of the voters it knows about.
// The roster is keyed by identity commitment and never stores raw
// identifiers. It is only consulted as a pre-flight check: the voter
// registry of the ledger stays authoritative for eligibility.
package roster

import (
	"context"
	"errors"
	"time"

	"github.com/vocdoni/zkvote-node/types"
)

// ErrVoterExists is returned when adding a commitment that is already in
// the roster.
var ErrVoterExists = errors.New("voter already in roster")

// Voter is the roster document of a voter.
type Voter struct {
	IDHash    string    `json:"idHash" bson:"idHash"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Roster is implemented by the roster backends.
type Roster interface {
	// FindVoterByCommitment reports whether a voter with the commitment is
	// in the roster.
	FindVoterByCommitment(ctx context.Context, commitment *types.BigInt) (bool, error)
	// AddVoter stores a voter, or returns ErrVoterExists.
	AddVoter(ctx context.Context, commitment *types.BigInt, meta Voter) error
	Close(ctx context.Context) error
}

func newVoter(commitment *types.BigInt, meta Voter) Voter {
	meta.IDHash = commitment.String()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	return meta
}
