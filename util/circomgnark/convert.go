package circomgnark

import (
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// ConvertCircomToGnark converts a Circom proof, verification key and public
// signals to the gnark format, ready for GnarkProof.Verify.
func ConvertCircomToGnark(circomVk *CircomVerificationKey,
	circomProof *CircomProof, circomPublicSignals []string,
) (*GnarkProof, error) {
	publicInputs, err := ConvertPublicInputs(circomPublicSignals)
	if err != nil {
		return nil, err
	}
	proof, err := ConvertProof(circomProof)
	if err != nil {
		return nil, err
	}
	vk, err := ConvertVerificationKey(circomVk)
	if err != nil {
		return nil, err
	}
	return &GnarkProof{
		Proof:        proof,
		VerifyingKey: vk,
		PublicInputs: publicInputs,
	}, nil
}

// ConvertPublicInputs parses decimal public signals into scalar field
// elements.
func ConvertPublicInputs(publicSignals []string) (bn254fr.Vector, error) {
	inputs := make(bn254fr.Vector, len(publicSignals))
	for i, s := range publicSignals {
		e, err := ParseScalar(s)
		if err != nil {
			return nil, fmt.Errorf("public input %d: %w", i, err)
		}
		inputs[i] = e
	}
	return inputs, nil
}

// ConvertProof converts a CircomProof into a gnark BN254 proof.
func ConvertProof(p *CircomProof) (*groth16_bn254.Proof, error) {
	ar, err := ParseG1(p.PiA)
	if err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	bs, err := ParseG2(p.PiB)
	if err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	krs, err := ParseG1(p.PiC)
	if err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	return &groth16_bn254.Proof{Ar: *ar, Bs: *bs, Krs: *krs}, nil
}

// ConvertVerificationKey converts a snarkjs verification key into a
// precomputed gnark BN254 verifying key.
func ConvertVerificationKey(snarkVk *CircomVerificationKey) (*groth16_bn254.VerifyingKey, error) {
	if snarkVk.NPublic > 0 && len(snarkVk.IC) != snarkVk.NPublic+1 {
		return nil, fmt.Errorf("verification key has %d IC points for %d public inputs",
			len(snarkVk.IC), snarkVk.NPublic)
	}
	if len(snarkVk.IC) == 0 {
		return nil, fmt.Errorf("verification key has no IC points")
	}
	alpha, err := ParseG1(snarkVk.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("vk_alpha_1: %w", err)
	}
	beta, err := ParseG2(snarkVk.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("vk_beta_2: %w", err)
	}
	gamma, err := ParseG2(snarkVk.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("vk_gamma_2: %w", err)
	}
	delta, err := ParseG2(snarkVk.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("vk_delta_2: %w", err)
	}
	k := make([]curve.G1Affine, len(snarkVk.IC))
	for i, ic := range snarkVk.IC {
		p, err := ParseG1(ic)
		if err != nil {
			return nil, fmt.Errorf("IC[%d]: %w", i, err)
		}
		k[i] = *p
	}

	vk := &groth16_bn254.VerifyingKey{}
	vk.G1.Alpha = *alpha
	vk.G1.K = k
	vk.G2.Beta = *beta
	vk.G2.Gamma = *gamma
	vk.G2.Delta = *delta
	// precompute e(alpha, beta) and the negated G2 points used by Verify
	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("failed to precompute verification key: %w", err)
	}
	return vk, nil
}

// Verify checks the proof. A proof that does not satisfy the pairing
// equation returns false and the verification error.
func (g *GnarkProof) Verify() (bool, error) {
	if err := groth16_bn254.Verify(g.Proof, g.VerifyingKey, g.PublicInputs); err != nil {
		return false, fmt.Errorf("proof verification failed: %w", err)
	}
	return true, nil
}

// FromGnarkProof expresses a gnark BN254 Groth16 proof in the snarkjs
// format, with pi_b in native coordinate order.
func FromGnarkProof(proof groth16.Proof) (*CircomProof, error) {
	p, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unsupported proof type %T", proof)
	}
	if len(p.Commitments) > 0 {
		return nil, fmt.Errorf("proofs with commitments have no snarkjs representation")
	}
	return &CircomProof{
		PiA:      FormatG1(&p.Ar),
		PiB:      FormatG2(&p.Bs),
		PiC:      FormatG1(&p.Krs),
		Protocol: ProtocolGroth16,
		Curve:    CurveBN128,
	}, nil
}

// FromGnarkVerifyingKey expresses a gnark BN254 verifying key as a snarkjs
// verification_key.json document.
func FromGnarkVerifyingKey(vk groth16.VerifyingKey) (*CircomVerificationKey, error) {
	v, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("unsupported verifying key type %T", vk)
	}
	if len(v.CommitmentKeys) > 0 {
		return nil, fmt.Errorf("verifying keys with commitments have no snarkjs representation")
	}
	ic := make([][]string, len(v.G1.K))
	for i := range v.G1.K {
		ic[i] = FormatG1(&v.G1.K[i])
	}
	return &CircomVerificationKey{
		Protocol: ProtocolGroth16,
		Curve:    CurveBN128,
		NPublic:  len(v.G1.K) - 1,
		VkAlpha1: FormatG1(&v.G1.Alpha),
		VkBeta2:  FormatG2(&v.G2.Beta),
		VkGamma2: FormatG2(&v.G2.Gamma),
		VkDelta2: FormatG2(&v.G2.Delta),
		IC:       ic,
	}, nil
}

// PublicSignals formats scalar field elements as decimal strings.
func PublicSignals(inputs bn254fr.Vector) []string {
	out := make([]string, len(inputs))
	for i := range inputs {
		out[i] = inputs[i].BigInt(new(big.Int)).String()
	}
	return out
}
