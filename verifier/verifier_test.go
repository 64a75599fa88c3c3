package verifier

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/circuits/voter/votertest"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// tupleFrom converts a snarkjs proof to the submission shape.
func tupleFrom(p *circomgnark.CircomProof, signals []string) *types.ProofTuple {
	return &types.ProofTuple{
		A:             p.PiA[:2],
		B:             circomgnark.FlipG2(p.PiB[:2]),
		C:             p.PiC[:2],
		PublicSignals: signals,
	}
}

func randomG1() []string {
	var k bn254fr.Element
	if _, err := k.SetRandom(); err != nil {
		panic(err)
	}
	_, _, g1, _ := curve.Generators()
	var p curve.G1Affine
	p.ScalarMultiplication(&g1, k.BigInt(new(big.Int)))
	return circomgnark.FormatG1(&p)[:2]
}

func newTestVerifier(c *qt.C) *Verifier {
	v, err := New(votertest.VerificationKey(c))
	c.Assert(err, qt.IsNil)
	c.Assert(v.NPublic(), qt.Equals, 2)
	return v
}

func validTuple(c *qt.C) *types.ProofTuple {
	id := big.NewInt(12345)
	proof, signals := votertest.Prove(c, id, votertest.Commitment(c, id), true)
	return tupleFrom(proof, signals)
}

func TestVerifyValidProof(t *testing.T) {
	c := qt.New(t)
	v := newTestVerifier(c)
	tuple := validTuple(c)

	ok, err := v.VerifyTuple(tuple)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// the same proof does not hold for another commitment
	other := *tuple
	other.PublicSignals = []string{"1", "42"}
	ok, err = v.VerifyTuple(&other)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestVerifyRandomPoints(t *testing.T) {
	c := qt.New(t)
	v := newTestVerifier(c)
	tuple := validTuple(c)

	garbled := *tuple
	garbled.A = randomG1()
	ok, err := v.VerifyTuple(&garbled)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	garbled = *tuple
	garbled.C = randomG1()
	ok, err = v.VerifyTuple(&garbled)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestVerifyRequiresReversedB(t *testing.T) {
	c := qt.New(t)
	v := newTestVerifier(c)
	tuple := validTuple(c)

	native := *tuple
	native.B = circomgnark.FlipG2(tuple.B)
	ok, _ := v.VerifyTuple(&native)
	c.Assert(ok, qt.IsFalse)
}

func TestVerifyMalformed(t *testing.T) {
	c := qt.New(t)
	v := newTestVerifier(c)
	tuple := validTuple(c)

	cases := map[string]func(p *types.ProofTuple){
		"short a":           func(p *types.ProofTuple) { p.A = p.A[:1] },
		"long c":            func(p *types.ProofTuple) { p.C = append(append([]string{}, p.C...), "1") },
		"short b":           func(p *types.ProofTuple) { p.B = p.B[:1] },
		"short b pair":      func(p *types.ProofTuple) { p.B = [][]string{p.B[0][:1], p.B[1]} },
		"one signal":        func(p *types.ProofTuple) { p.PublicSignals = p.PublicSignals[:1] },
		"three signals":     func(p *types.ProofTuple) { p.PublicSignals = []string{"1", "2", "3"} },
		"hex coordinate":    func(p *types.ProofTuple) { p.A = []string{"0x01", p.A[1]} },
		"negative":          func(p *types.ProofTuple) { p.C = []string{"-1", p.C[1]} },
		"not on curve":      func(p *types.ProofTuple) { p.A = []string{"1", "3"} },
		"coordinate >= p":   func(p *types.ProofTuple) { p.A = []string{fp.Modulus().String(), p.A[1]} },
		"signal >= r":       func(p *types.ProofTuple) { p.PublicSignals = []string{"1", bn254fr.Modulus().String()} },
		"signal not number": func(p *types.ProofTuple) { p.PublicSignals = []string{"yes", p.PublicSignals[1]} },
	}
	for name, mutate := range cases {
		p := &types.ProofTuple{
			A:             append([]string{}, tuple.A...),
			B:             [][]string{append([]string{}, tuple.B[0]...), append([]string{}, tuple.B[1]...)},
			C:             append([]string{}, tuple.C...),
			PublicSignals: append([]string{}, tuple.PublicSignals...),
		}
		mutate(p)
		ok, err := v.VerifyTuple(p)
		c.Assert(errors.Is(err, ErrMalformedInput), qt.IsTrue, qt.Commentf("%s: %v", name, err))
		c.Assert(ok, qt.IsFalse)
	}

	_, err := v.VerifyTuple(nil)
	c.Assert(errors.Is(err, ErrMalformedInput), qt.IsTrue)
}

func TestLoadFile(t *testing.T) {
	c := qt.New(t)
	data, err := circomgnark.MarshalCircomVerificationKeyJSON(votertest.VerificationKey(c))
	c.Assert(err, qt.IsNil)
	path := filepath.Join(t.TempDir(), "verification_key.json")
	c.Assert(os.WriteFile(path, data, 0o600), qt.IsNil)

	v, err := LoadFile(path)
	c.Assert(err, qt.IsNil)
	ok, err := v.VerifyTuple(validTuple(c))
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	_, err = New(nil)
	c.Assert(err, qt.IsNotNil)
}
