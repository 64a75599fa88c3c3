package prover

import (
	"context"
	"fmt"

	"github.com/vocdoni/zkvote-node/identity"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// Assembler turns a raw voter identifier and circuit inputs into a proof
// tuple ready to be submitted with a vote.
type Assembler struct {
	prover Prover
	ids    *identity.Generator
}

// NewAssembler returns an assembler proving with p. A nil generator gets
// one with the default hash backend.
func NewAssembler(p Prover, ids *identity.Generator) *Assembler {
	if ids == nil {
		ids = identity.New(nil)
	}
	return &Assembler{prover: p, ids: ids}
}

// AssembleVoteProof canonicalizes rawIdentifier, fills the commitment input
// with the identity commitment if the caller did not set it, invokes the
// prover once and converts its output with ToProofTuple. Invalid
// identifiers return identity.ErrInvalidInput; any failure of the prover
// is wrapped in ErrProofGeneration.
func (a *Assembler) AssembleVoteProof(ctx context.Context, rawIdentifier string, inputs Inputs) (*types.ProofTuple, error) {
	id, err := identity.Canonicalize(rawIdentifier)
	if err != nil {
		return nil, err
	}
	in := inputs.Clone()
	if in[SignalCommitment] == "" {
		commitment, err := a.ids.Commit(ctx, rawIdentifier)
		if err != nil {
			return nil, err
		}
		in[SignalCommitment] = commitment.String()
	}
	if in[SignalEligible] == "" {
		in[SignalEligible] = "1"
	}

	proof, signals, err := a.prover.Prove(ctx, id.String(), in)
	if err != nil {
		log.Debugw("proof generation failed", "commitment", in[SignalCommitment], "error", err)
		return nil, fmt.Errorf("%w: %w", ErrProofGeneration, err)
	}
	tuple, err := ToProofTuple(proof, signals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProofGeneration, err)
	}
	return tuple, nil
}

// ToProofTuple converts a snarkjs proof to the submission shape: the
// projective z coordinates are dropped and every inner pair of pi_b is
// reversed, so that b is [[x1, x0], [y1, y0]].
func ToProofTuple(proof *circomgnark.CircomProof, publicSignals []string) (*types.ProofTuple, error) {
	if proof == nil {
		return nil, fmt.Errorf("nil proof")
	}
	if len(proof.PiA) < 2 || len(proof.PiC) < 2 || len(proof.PiB) < 2 {
		return nil, fmt.Errorf("incomplete proof points")
	}
	for _, pair := range proof.PiB[:2] {
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid pi_b coordinate")
		}
	}
	if len(publicSignals) != types.VoterPublicSignals {
		return nil, fmt.Errorf("expected %d public signals, got %d", types.VoterPublicSignals, len(publicSignals))
	}

	a, err := normalize(proof.PiA[:2])
	if err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	c, err := normalize(proof.PiC[:2])
	if err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	b := make([][]string, 2)
	for i, pair := range proof.PiB[:2] {
		if b[i], err = normalize(pair); err != nil {
			return nil, fmt.Errorf("pi_b: %w", err)
		}
	}
	signals, err := normalize(publicSignals)
	if err != nil {
		return nil, fmt.Errorf("public signals: %w", err)
	}
	return &types.ProofTuple{
		A:             a,
		B:             circomgnark.FlipG2(b),
		C:             c,
		PublicSignals: signals,
	}, nil
}

// normalize rewrites decimal strings in their canonical form.
func normalize(values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		n, err := types.ParseDecimal(v)
		if err != nil {
			return nil, err
		}
		out[i] = n.String()
	}
	return out, nil
}
