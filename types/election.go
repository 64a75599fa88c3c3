package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ElectionID identifies an election instance. It is the canonical string
// form of a UUID.
type ElectionID string

// DefaultElectionID is the election used by single-election deployments.
const DefaultElectionID = ElectionID("00000000-0000-0000-0000-000000000000")

// NewElectionID returns a new random election identifier.
func NewElectionID() ElectionID {
	return ElectionID(uuid.New().String())
}

// ParseElectionID validates s and returns it in canonical form.
func ParseElectionID(s string) (ElectionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid election id %q: %w", s, err)
	}
	return ElectionID(id.String()), nil
}

// Validate reports whether id is the canonical form of a UUID.
func (id ElectionID) Validate() error {
	parsed, err := ParseElectionID(string(id))
	if err != nil {
		return err
	}
	if parsed != id {
		return fmt.Errorf("election id %q is not in canonical form", string(id))
	}
	return nil
}

// Bytes returns the 16 raw bytes of the identifier, used as storage key.
// It returns nil for identifiers that do not Validate, which are never
// stored.
func (id ElectionID) Bytes() []byte {
	if id.Validate() != nil {
		return nil
	}
	u := uuid.MustParse(string(id))
	return u[:]
}

// UnmarshalText accepts only UUIDs and stores them in canonical form.
func (id *ElectionID) UnmarshalText(text []byte) error {
	parsed, err := ParseElectionID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ElectionID) String() string {
	return string(id)
}

// Election holds the metadata of an election instance.
type Election struct {
	ID        ElectionID `json:"id" cbor:"0,keyasint"`
	Name      string     `json:"name" cbor:"1,keyasint"`
	CreatedAt time.Time  `json:"createdAt" cbor:"2,keyasint"`
}
