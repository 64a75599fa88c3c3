// Package prover assembles vote proofs off-chain. A Prover backend produces
// a Groth16 proof of the voter circuit in the snarkjs format, and the
// Assembler converts it to the submission shape accepted by the verifier.
package prover

import (
	"context"
	"errors"
	"maps"

	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// ErrProofGeneration is returned when the prover cannot produce a proof,
// typically because the inputs do not satisfy the circuit. Retrying with
// the same inputs fails again, so it is never retried.
var ErrProofGeneration = errors.New("proof generation failed")

// Input signal names of the voter circuit.
const (
	SignalIdentifier = "identifier"
	SignalCommitment = "commitment"
	SignalEligible   = "eligible"
)

// Inputs are circuit input signals as decimal strings, keyed by signal
// name. The identifier is passed apart from them.
type Inputs map[string]string

// Clone returns a copy of in, never nil.
func (in Inputs) Clone() Inputs {
	out := Inputs{}
	maps.Copy(out, in)
	return out
}

// Prover produces a proof of the voter circuit for the canonical decimal
// identifier and the other inputs. It returns the proof and the public
// signals as the snarkjs prover outputs them.
type Prover interface {
	Prove(ctx context.Context, identifier string, inputs Inputs) (*circomgnark.CircomProof, []string, error)
}
