// Package voter defines the voter eligibility circuit. The circuit proves
// knowledge of an identifier whose Poseidon digest is the public identity
// commitment, and exposes the result as a public eligibility flag.
package voter

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/gnark-crypto-primitives/hash/native/bn254/poseidon"
)

// Curve is the curve the circuit is proven over.
const Curve = ecc.BN254

// NPublicInputs is the number of public inputs: the eligibility flag and the
// identity commitment, in that order.
const NPublicInputs = 2

// VoterCircuit constrains Eligible to be 1 if Poseidon(Identifier) equals
// Commitment and 0 otherwise. A proof with Eligible = 0 is valid; rejecting
// it is up to the verifier of the public inputs.
type VoterCircuit struct {
	Eligible   frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`
	Identifier frontend.Variable
}

func (c *VoterCircuit) Define(api frontend.API) error {
	digest, err := poseidon.MultiHash(api, c.Identifier)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.Eligible, api.IsZero(api.Sub(digest, c.Commitment)))
	return nil
}

// Assignment returns a full witness assignment for the circuit.
func Assignment(identifier, commitment *big.Int, eligible bool) *VoterCircuit {
	flag := 0
	if eligible {
		flag = 1
	}
	return &VoterCircuit{
		Eligible:   flag,
		Commitment: commitment,
		Identifier: identifier,
	}
}
