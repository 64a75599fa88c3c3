// Package verifier implements the Groth16 verification gate for vote
// proofs. It checks a proof in the submission shape of types.ProofTuple
// against a fixed BN254 verifying key and answers with a single boolean.
package verifier

import (
	"errors"
	"fmt"
	"os"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// ErrMalformedInput is returned for structurally invalid proofs or public
// signals: wrong lengths, values that are not decimal field elements and
// points that are not on the curve subgroups. Proofs that are well formed
// but do not verify are not errors.
var ErrMalformedInput = errors.New("malformed proof input")

// Verifier holds a precomputed verifying key. It is stateless and safe for
// concurrent use.
type Verifier struct {
	vk      *groth16_bn254.VerifyingKey
	nPublic int
}

// New builds a Verifier from a snarkjs verification key.
func New(vk *circomgnark.CircomVerificationKey) (*Verifier, error) {
	if vk == nil {
		return nil, fmt.Errorf("nil verification key")
	}
	gvk, err := circomgnark.ConvertVerificationKey(vk)
	if err != nil {
		return nil, fmt.Errorf("invalid verification key: %w", err)
	}
	return &Verifier{vk: gvk, nPublic: len(gvk.G1.K) - 1}, nil
}

// LoadFile builds a Verifier from a snarkjs verification_key.json file.
func LoadFile(path string) (*Verifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	vk, err := circomgnark.UnmarshalCircomVerificationKeyJSON(data)
	if err != nil {
		return nil, err
	}
	return New(vk)
}

// NPublic returns the number of public signals expected by the key.
func (v *Verifier) NPublic() int {
	return v.nPublic
}

// VerifyTuple is Verify over a ProofTuple.
func (v *Verifier) VerifyTuple(p *types.ProofTuple) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("%w: nil proof", ErrMalformedInput)
	}
	return v.Verify(p.A, p.B, p.C, p.PublicSignals)
}

// Verify evaluates the Groth16 pairing equation for the proof (a, b, c) and
// the public signals. The inner pairs of b must come in the reversed order
// of the submission shape, [[x1, x0], [y1, y0]]. It returns false without
// error for a well-formed proof that does not verify.
func (v *Verifier) Verify(a []string, b [][]string, c []string, publicSignals []string) (bool, error) {
	proof, inputs, err := v.parse(a, b, c, publicSignals)
	if err != nil {
		return false, err
	}
	if err := groth16_bn254.Verify(proof, v.vk, inputs); err != nil {
		log.Debugw("proof rejected", "error", err)
		return false, nil
	}
	return true, nil
}

func (v *Verifier) parse(a []string, b [][]string, c []string, publicSignals []string,
) (*groth16_bn254.Proof, bn254fr.Vector, error) {
	if len(a) != 2 || len(c) != 2 {
		return nil, nil, fmt.Errorf("%w: a and c must have 2 elements", ErrMalformedInput)
	}
	if len(b) != 2 {
		return nil, nil, fmt.Errorf("%w: b must have 2 pairs", ErrMalformedInput)
	}
	if len(publicSignals) != v.nPublic {
		return nil, nil, fmt.Errorf("%w: expected %d public signals, got %d",
			ErrMalformedInput, v.nPublic, len(publicSignals))
	}
	ar, err := circomgnark.ParseG1(a)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: a: %w", ErrMalformedInput, err)
	}
	// back to the native [x0, x1] order
	bs, err := circomgnark.ParseG2(circomgnark.FlipG2(b))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: b: %w", ErrMalformedInput, err)
	}
	krs, err := circomgnark.ParseG1(c)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: c: %w", ErrMalformedInput, err)
	}
	inputs, err := circomgnark.ConvertPublicInputs(publicSignals)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return &groth16_bn254.Proof{Ar: *ar, Bs: *bs, Krs: *krs}, inputs, nil
}
