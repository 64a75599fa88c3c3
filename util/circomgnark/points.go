package circomgnark

import (
	"errors"
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/vocdoni/zkvote-node/types"
)

// ErrInvalidEncoding is returned for values that are not decimal field
// elements or points that are not on the expected subgroup.
var ErrInvalidEncoding = errors.New("invalid encoding")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEncoding, fmt.Sprintf(format, args...))
}

// ParseBaseField parses a decimal coordinate of the BN254 base field.
func ParseBaseField(s string) (fp.Element, error) {
	var e fp.Element
	v, err := types.ParseDecimal(s)
	if err != nil {
		return e, invalid("%v", err)
	}
	if !v.InField(fp.Modulus()) {
		return e, invalid("coordinate %s exceeds the base field", s)
	}
	e.SetBigInt(v.MathBigInt())
	return e, nil
}

// ParseScalar parses a decimal element of the BN254 scalar field.
func ParseScalar(s string) (bn254fr.Element, error) {
	var e bn254fr.Element
	v, err := types.ParseDecimal(s)
	if err != nil {
		return e, invalid("%v", err)
	}
	if !v.InField(bn254fr.Modulus()) {
		return e, invalid("value %s exceeds the scalar field", s)
	}
	e.SetBigInt(v.MathBigInt())
	return e, nil
}

// ParseG1 parses an affine G1 point given as [x, y] or as snarkjs projective
// [x, y, "1"]. The point must be on the curve and in the G1 subgroup.
func ParseG1(coords []string) (*curve.G1Affine, error) {
	if len(coords) != 2 && len(coords) != 3 {
		return nil, invalid("G1 point needs 2 coordinates, got %d", len(coords))
	}
	if len(coords) == 3 && coords[2] != "1" {
		return nil, invalid("G1 point is not affine")
	}
	var p curve.G1Affine
	var err error
	if p.X, err = ParseBaseField(coords[0]); err != nil {
		return nil, err
	}
	if p.Y, err = ParseBaseField(coords[1]); err != nil {
		return nil, err
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, invalid("G1 point not on curve")
	}
	return &p, nil
}

// ParseG2 parses an affine G2 point in snarkjs native order
// [[x0, x1], [y0, y1]], optionally followed by ["1", "0"]. The point must be
// on the twist and in the G2 subgroup.
func ParseG2(coords [][]string) (*curve.G2Affine, error) {
	if len(coords) != 2 && len(coords) != 3 {
		return nil, invalid("G2 point needs 2 coordinate pairs, got %d", len(coords))
	}
	for i, pair := range coords {
		if len(pair) != 2 {
			return nil, invalid("G2 coordinate %d needs 2 elements, got %d", i, len(pair))
		}
	}
	if len(coords) == 3 && (coords[2][0] != "1" || coords[2][1] != "0") {
		return nil, invalid("G2 point is not affine")
	}
	var p curve.G2Affine
	targets := []*fp.Element{&p.X.A0, &p.X.A1, &p.Y.A0, &p.Y.A1}
	for i, s := range []string{coords[0][0], coords[0][1], coords[1][0], coords[1][1]} {
		e, err := ParseBaseField(s)
		if err != nil {
			return nil, err
		}
		*targets[i] = e
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, invalid("G2 point not on curve")
	}
	return &p, nil
}

// FlipG2 returns a copy of a G2 coordinate list with every inner pair
// reversed. The on-chain verifier convention expects [[x1, x0], [y1, y0]]
// where snarkjs outputs [[x0, x1], [y0, y1]]; FlipG2 converts in both
// directions.
func FlipG2(coords [][]string) [][]string {
	out := make([][]string, len(coords))
	for i, pair := range coords {
		flipped := make([]string, len(pair))
		for j := range pair {
			flipped[len(pair)-1-j] = pair[j]
		}
		out[i] = flipped
	}
	return out
}

func formatFp(e *fp.Element) string {
	return e.BigInt(new(big.Int)).String()
}

// FormatG1 returns the snarkjs projective representation [x, y, "1"].
func FormatG1(p *curve.G1Affine) []string {
	return []string{formatFp(&p.X), formatFp(&p.Y), "1"}
}

// FormatG2 returns the snarkjs projective representation
// [[x0, x1], [y0, y1], ["1", "0"]].
func FormatG2(p *curve.G2Affine) [][]string {
	return [][]string{
		{formatFp(&p.X.A0), formatFp(&p.X.A1)},
		{formatFp(&p.Y.A0), formatFp(&p.Y.A1)},
		{"1", "0"},
	}
}
