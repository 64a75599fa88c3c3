// Package identity derives identity commitments from raw voter identifiers.
// A commitment is the Poseidon digest of the canonical identifier encoded as
// a single BN254 scalar field element; it is the value registered in the
// voter registry and asserted as public input by the voter proof.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/vocdoni/zkvote-node/crypto/hash/poseidon"
	"github.com/vocdoni/zkvote-node/types"
)

// ErrInvalidInput is returned for identifiers that are empty after trimming
// or cannot be encoded as a field element.
var ErrInvalidInput = errors.New("invalid identifier")

// maxIdentifierBytes keeps byte-encoded identifiers below the field modulus.
const maxIdentifierBytes = 31

// lengthShift places the byte length of a non-numeric identifier above its
// payload. Numeric identifiers stay below 1<<lengthShift, so the two
// encodings never share a field element.
const lengthShift = 8 * maxIdentifierBytes

var numericLimit = new(big.Int).Lsh(big.NewInt(1), lengthShift)

// Generator computes identity commitments using a shared Poseidon hasher.
type Generator struct {
	hasher *poseidon.Hasher
}

// New returns a Generator backed by hasher. A nil hasher gets a private one
// with the default backend.
func New(hasher *poseidon.Hasher) *Generator {
	if hasher == nil {
		hasher = poseidon.NewHasher(nil)
	}
	return &Generator{hasher: hasher}
}

// Hasher returns the hasher used by the generator.
func (g *Generator) Hasher() *poseidon.Hasher {
	return g.hasher
}

// Canonicalize trims the identifier and encodes it as a scalar field
// element. A decimal number without leading zeros and below 2^248 is read as
// that integer. Any other identifier becomes len<<248 | bytes, where bytes is
// the big-endian integer of its UTF-8 encoding (at most 31 bytes).
func Canonicalize(raw string) (*big.Int, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidInput)
	}
	if isCanonicalDecimal(id) {
		value, _ := new(big.Int).SetString(id, 10)
		if value.Cmp(numericLimit) < 0 {
			return value, nil
		}
	}
	if len(id) > maxIdentifierBytes {
		return nil, fmt.Errorf("%w: identifier longer than %d bytes", ErrInvalidInput, maxIdentifierBytes)
	}
	value := new(big.Int).SetBytes([]byte(id))
	value.Or(value, new(big.Int).Lsh(big.NewInt(int64(len(id))), lengthShift))
	if value.Cmp(ecc.BN254.ScalarField()) >= 0 {
		return nil, fmt.Errorf("%w: identifier exceeds the scalar field", ErrInvalidInput)
	}
	return value, nil
}

// Commit returns Poseidon(Canonicalize(raw)).
func (g *Generator) Commit(ctx context.Context, raw string) (*types.BigInt, error) {
	value, err := Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	digest, err := g.hasher.Hash(ctx, value)
	if err != nil {
		return nil, err
	}
	return new(types.BigInt).SetBigInt(digest), nil
}

func isCanonicalDecimal(s string) bool {
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
