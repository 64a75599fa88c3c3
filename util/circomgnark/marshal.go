package circomgnark

import (
	"encoding/json"
	"fmt"
)

// UnmarshalCircom decodes a snarkjs proof and its public signals, as the
// prover returns them.
func UnmarshalCircom(circomProof, pubSignals string) (*CircomProof, []string, error) {
	proof, err := UnmarshalCircomProofJSON([]byte(circomProof))
	if err != nil {
		return nil, nil, err
	}
	signals, err := UnmarshalCircomPublicSignalsJSON([]byte(pubSignals))
	if err != nil {
		return nil, nil, err
	}
	return proof, signals, nil
}

func UnmarshalCircomProofJSON(data []byte) (*CircomProof, error) {
	var proof CircomProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return nil, fmt.Errorf("failed to parse proof JSON: %w", err)
	}
	return &proof, nil
}

func UnmarshalCircomVerificationKeyJSON(data []byte) (*CircomVerificationKey, error) {
	var vk CircomVerificationKey
	if err := json.Unmarshal(data, &vk); err != nil {
		return nil, fmt.Errorf("failed to parse verification key JSON: %w", err)
	}
	if vk.Protocol != "" && vk.Protocol != ProtocolGroth16 {
		return nil, fmt.Errorf("unsupported verification key protocol %q", vk.Protocol)
	}
	return &vk, nil
}

func UnmarshalCircomPublicSignalsJSON(data []byte) ([]string, error) {
	var publicSignals []string
	if err := json.Unmarshal(data, &publicSignals); err != nil {
		return nil, fmt.Errorf("failed to parse public signals JSON: %w", err)
	}
	return publicSignals, nil
}

// MarshalCircomProofJSON marshals the proof into pretty-printed JSON.
func MarshalCircomProofJSON(proof *CircomProof) ([]byte, error) {
	return json.MarshalIndent(proof, "", "  ")
}

// MarshalCircomVerificationKeyJSON marshals the key into pretty-printed
// JSON, as snarkjs writes verification_key.json.
func MarshalCircomVerificationKeyJSON(vk *CircomVerificationKey) ([]byte, error) {
	return json.MarshalIndent(vk, "", "  ")
}

func MarshalCircomPublicSignalsJSON(publicSignals []string) ([]byte, error) {
	return json.MarshalIndent(publicSignals, "", "  ")
}
