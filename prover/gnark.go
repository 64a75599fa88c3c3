package prover

import (
	"context"
	"fmt"
	"math/big"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/zkvote-node/circuits/voter"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// GnarkProver proves the voter circuit in process with gnark. It is safe
// for concurrent use.
type GnarkProver struct {
	keys *voter.Keys
}

// NewGnarkProver returns a prover using the constraint system and proving
// key of keys.
func NewGnarkProver(keys *voter.Keys) (*GnarkProver, error) {
	if keys == nil || keys.CS == nil || keys.PK == nil {
		return nil, fmt.Errorf("gnark prover requires a constraint system and a proving key")
	}
	return &GnarkProver{keys: keys}, nil
}

// Prove implements Prover. The eligible input defaults to 1.
func (g *GnarkProver) Prove(ctx context.Context, identifier string, inputs Inputs) (*circomgnark.CircomProof, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	id, err := parseSignal(SignalIdentifier, identifier)
	if err != nil {
		return nil, nil, err
	}
	commitment, err := parseSignal(SignalCommitment, inputs[SignalCommitment])
	if err != nil {
		return nil, nil, err
	}
	eligible := big.NewInt(1)
	if v, ok := inputs[SignalEligible]; ok {
		if eligible, err = parseSignal(SignalEligible, v); err != nil {
			return nil, nil, err
		}
	}

	assignment := &voter.VoterCircuit{
		Eligible:   eligible,
		Commitment: commitment,
		Identifier: id,
	}
	w, err := frontend.NewWitness(assignment, voter.Curve.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create witness: %w", err)
	}
	proof, err := groth16.Prove(g.keys.CS, g.keys.PK, w)
	if err != nil {
		return nil, nil, err
	}
	circomProof, err := circomgnark.FromGnarkProof(proof)
	if err != nil {
		return nil, nil, err
	}
	pubW, err := w.Public()
	if err != nil {
		return nil, nil, err
	}
	vec, ok := pubW.Vector().(bn254fr.Vector)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected public witness type %T", pubW.Vector())
	}
	log.Debugw("voter proof generated", "backend", "gnark")
	return circomProof, circomgnark.PublicSignals(vec), nil
}

func parseSignal(name, value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("input %s: invalid decimal %q", name, value)
	}
	return v, nil
}
