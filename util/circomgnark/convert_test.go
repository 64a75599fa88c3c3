package circomgnark_test

import (
	"math/big"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/circuits/voter/votertest"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

func TestConvertCircomToGnark(t *testing.T) {
	c := qt.New(t)
	identifier := big.NewInt(424242)
	proof, signals := votertest.Prove(t, identifier, votertest.Commitment(t, identifier), true)
	vk := votertest.VerificationKey(t)

	// through the JSON documents, as a circom prover hands them over
	proofJSON, err := circomgnark.MarshalCircomProofJSON(proof)
	c.Assert(err, qt.IsNil)
	signalsJSON, err := circomgnark.MarshalCircomPublicSignalsJSON(signals)
	c.Assert(err, qt.IsNil)
	decoded, decodedSignals, err := circomgnark.UnmarshalCircom(string(proofJSON), string(signalsJSON))
	c.Assert(err, qt.IsNil)
	c.Assert(decodedSignals, qt.DeepEquals, signals)

	gp, err := circomgnark.ConvertCircomToGnark(vk, decoded, decodedSignals)
	c.Assert(err, qt.IsNil)
	ok, err := gp.Verify()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	gp, err = circomgnark.ConvertCircomToGnark(vk, decoded, []string{"0", signals[1]})
	c.Assert(err, qt.IsNil)
	ok, err = gp.Verify()
	c.Assert(err, qt.IsNotNil)
	c.Assert(ok, qt.IsFalse)

	_, err = circomgnark.ConvertCircomToGnark(vk, decoded, []string{"0x1", signals[1]})
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)
}

func TestParseG1(t *testing.T) {
	c := qt.New(t)
	_, _, g1, _ := curve.Generators()

	p, err := circomgnark.ParseG1(circomgnark.FormatG1(&g1))
	c.Assert(err, qt.IsNil)
	c.Assert(p.Equal(&g1), qt.IsTrue)

	coords := circomgnark.FormatG1(&g1)
	p, err = circomgnark.ParseG1(coords[:2])
	c.Assert(err, qt.IsNil)
	c.Assert(p.Equal(&g1), qt.IsTrue)

	_, err = circomgnark.ParseG1([]string{coords[0], coords[1], "2"})
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)

	// (1, 3) is not on y^2 = x^3 + 3
	_, err = circomgnark.ParseG1([]string{"1", "3"})
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)

	_, err = circomgnark.ParseG1([]string{fp.Modulus().String(), "2"})
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)

	_, err = circomgnark.ParseG1([]string{"1"})
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)
}

func TestParseG2AndFlip(t *testing.T) {
	c := qt.New(t)
	_, _, _, g2 := curve.Generators()

	coords := circomgnark.FormatG2(&g2)
	p, err := circomgnark.ParseG2(coords)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Equal(&g2), qt.IsTrue)

	flipped := circomgnark.FlipG2(coords[:2])
	c.Assert(flipped[0], qt.DeepEquals, []string{coords[0][1], coords[0][0]})
	c.Assert(flipped[1], qt.DeepEquals, []string{coords[1][1], coords[1][0]})
	c.Assert(circomgnark.FlipG2(flipped), qt.DeepEquals, coords[:2])

	// the reversed pairs are not a point of the twist
	_, err = circomgnark.ParseG2(flipped)
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)

	_, err = circomgnark.ParseG2([][]string{{"1", "2"}, {"3"}})
	c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding)
}

func TestParseScalar(t *testing.T) {
	c := qt.New(t)
	e, err := circomgnark.ParseScalar("12345")
	c.Assert(err, qt.IsNil)
	c.Assert(e.BigInt(new(big.Int)).Int64(), qt.Equals, int64(12345))

	for _, s := range []string{"", "-1", "+1", "1e3", "21888242871839275222246405745257275088548364400416034343698204186575808495617"} {
		_, err := circomgnark.ParseScalar(s)
		c.Assert(err, qt.ErrorIs, circomgnark.ErrInvalidEncoding, qt.Commentf("%q", s))
	}
}
