// Package votertest provides shared fixtures for tests that need real voter
// circuit keys and proofs.
package votertest

import (
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/vocdoni/zkvote-node/circuits/voter"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

var (
	keysOnce sync.Once
	keys     *voter.Keys
	keysErr  error
)

// Keys returns voter circuit keys, running the setup once per test binary.
func Keys(tb testing.TB) *voter.Keys {
	tb.Helper()
	keysOnce.Do(func() {
		keys, keysErr = voter.Setup()
	})
	if keysErr != nil {
		tb.Fatalf("voter circuit setup: %v", keysErr)
	}
	return keys
}

// VerificationKey returns the snarkjs verification key of Keys.
func VerificationKey(tb testing.TB) *circomgnark.CircomVerificationKey {
	tb.Helper()
	vk, err := Keys(tb).CircomVerificationKey()
	if err != nil {
		tb.Fatalf("export verification key: %v", err)
	}
	return vk
}

// Commitment returns Poseidon(identifier).
func Commitment(tb testing.TB, identifier *big.Int) *big.Int {
	tb.Helper()
	h, err := poseidon.Hash([]*big.Int{identifier})
	if err != nil {
		tb.Fatalf("poseidon: %v", err)
	}
	return h
}

// Prove proves the given assignment and returns the proof in snarkjs format
// together with the public signals [eligible, commitment].
func Prove(tb testing.TB, identifier, commitment *big.Int, eligible bool) (*circomgnark.CircomProof, []string) {
	tb.Helper()
	k := Keys(tb)
	w, err := frontend.NewWitness(voter.Assignment(identifier, commitment, eligible), voter.Curve.ScalarField())
	if err != nil {
		tb.Fatalf("witness: %v", err)
	}
	proof, err := groth16.Prove(k.CS, k.PK, w)
	if err != nil {
		tb.Fatalf("prove: %v", err)
	}
	circomProof, err := circomgnark.FromGnarkProof(proof)
	if err != nil {
		tb.Fatalf("export proof: %v", err)
	}
	flag := "0"
	if eligible {
		flag = "1"
	}
	return circomProof, []string{flag, commitment.String()}
}

// Tuple proves knowledge of identifier for its own commitment and returns
// the proof in the submission shape, with the inner pairs of b reversed.
func Tuple(tb testing.TB, identifier *big.Int, eligible bool) *types.ProofTuple {
	tb.Helper()
	return TupleFor(tb, identifier, Commitment(tb, identifier), eligible)
}

// TupleFor is like Tuple for an arbitrary commitment. The circuit is only
// satisfiable when eligible matches Poseidon(identifier) == commitment.
func TupleFor(tb testing.TB, identifier, commitment *big.Int, eligible bool) *types.ProofTuple {
	tb.Helper()
	proof, signals := Prove(tb, identifier, commitment, eligible)
	return &types.ProofTuple{
		A:             proof.PiA[:2],
		B:             circomgnark.FlipG2(proof.PiB[:2]),
		C:             proof.PiC[:2],
		PublicSignals: signals,
	}
}
