// Package circomgnark converts between the snarkjs (circom) JSON formats of
// Groth16 proofs and verification keys and the gnark BN254 objects, in both
// directions.
package circomgnark

import (
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

const (
	// ProtocolGroth16 is the protocol tag of snarkjs Groth16 artifacts.
	ProtocolGroth16 = "groth16"
	// CurveBN128 is the name snarkjs gives to BN254.
	CurveBN128 = "bn128"
)

// CircomProof represents the proof structure output by SnarkJS. Points are
// given in projective form with the coordinates as decimal strings:
// G1 as [x, y, z] and G2 as [[x0, x1], [y0, y1], [z0, z1]].
type CircomProof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve,omitempty"`
}

// CircomVerificationKey represents the verification key structure output by SnarkJS.
type CircomVerificationKey struct {
	Protocol      string       `json:"protocol"`
	Curve         string       `json:"curve"`
	NPublic       int          `json:"nPublic"`
	VkAlpha1      []string     `json:"vk_alpha_1"`
	VkBeta2       [][]string   `json:"vk_beta_2"`
	VkGamma2      [][]string   `json:"vk_gamma_2"`
	VkDelta2      [][]string   `json:"vk_delta_2"`
	IC            [][]string   `json:"IC"`
	VkAlphabeta12 [][][]string `json:"vk_alphabeta_12,omitempty"` // not used in verification
}

// GnarkProof groups a gnark proof with the key and inputs to verify it.
type GnarkProof struct {
	Proof        *groth16_bn254.Proof
	VerifyingKey *groth16_bn254.VerifyingKey
	PublicInputs []bn254fr.Element
}
