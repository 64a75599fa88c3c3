package voter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/vocdoni/zkvote-node/circuits"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// Artifact file names, as written by the setup tool and published with the
// manifest.
const (
	CircuitName             = "voter"
	ConstraintSystemFile    = "voter.ccs"
	ProvingKeyFile          = "voter.pk"
	VerifyingKeyFile        = "voter.vk"
	VerificationKeyJSONFile = "verification_key.json"
	SolidityVerifierFile    = "Groth16Verifier.sol"
)

// Keys groups the compiled circuit with its Groth16 keys.
type Keys struct {
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// Compile compiles the voter circuit to R1CS.
func Compile() (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, &VoterCircuit{})
	if err != nil {
		return nil, fmt.Errorf("compile voter circuit: %w", err)
	}
	return ccs, nil
}

// Setup compiles the circuit and runs a fresh Groth16 setup. The toxic waste
// of this setup is not controlled; production keys come from a ceremony or
// the published artifacts.
func Setup() (*Keys, error) {
	ccs, err := Compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	log.Debugw("voter circuit setup done", "constraints", ccs.GetNbConstraints())
	return &Keys{CS: ccs, PK: pk, VK: vk}, nil
}

// LoadKeys reads the constraint system and keys stored in dir.
func LoadKeys(dir string) (*Keys, error) {
	ccs, err := circuits.LoadConstraintSystem(Curve, filepath.Join(dir, ConstraintSystemFile))
	if err != nil {
		return nil, err
	}
	pk, err := circuits.LoadProvingKey(Curve, filepath.Join(dir, ProvingKeyFile))
	if err != nil {
		return nil, err
	}
	vk, err := circuits.LoadVerificationKey(Curve, filepath.Join(dir, VerifyingKeyFile))
	if err != nil {
		return nil, err
	}
	return &Keys{CS: ccs, PK: pk, VK: vk}, nil
}

// CircomVerificationKey returns the verifying key in snarkjs format.
func (k *Keys) CircomVerificationKey() (*circomgnark.CircomVerificationKey, error) {
	return circomgnark.FromGnarkVerifyingKey(k.VK)
}

// Store writes every artifact of the setup to dir, together with the
// manifest listing their hashes, and returns the manifest.
func (k *Keys) Store(dir string) (*circuits.Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := circuits.StoreConstraintSystem(k.CS, filepath.Join(dir, ConstraintSystemFile)); err != nil {
		return nil, err
	}
	if err := circuits.StoreProvingKey(k.PK, filepath.Join(dir, ProvingKeyFile)); err != nil {
		return nil, err
	}
	if err := circuits.StoreVerificationKey(k.VK, filepath.Join(dir, VerifyingKeyFile)); err != nil {
		return nil, err
	}
	cvk, err := k.CircomVerificationKey()
	if err != nil {
		return nil, err
	}
	vkJSON, err := circomgnark.MarshalCircomVerificationKeyJSON(cvk)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, VerificationKeyJSONFile), vkJSON, 0o644); err != nil {
		return nil, err
	}
	sol, err := os.Create(filepath.Join(dir, SolidityVerifierFile))
	if err != nil {
		return nil, err
	}
	if err := k.VK.ExportSolidity(sol); err != nil {
		_ = sol.Close()
		return nil, fmt.Errorf("export solidity verifier: %w", err)
	}
	if err := sol.Close(); err != nil {
		return nil, err
	}

	manifest := &circuits.Manifest{
		Circuit:   CircuitName,
		Curve:     Curve.String(),
		Artifacts: map[string]types.HexBytes{},
	}
	for _, name := range []string{
		ConstraintSystemFile, ProvingKeyFile, VerifyingKeyFile,
		VerificationKeyJSONFile, SolidityVerifierFile,
	} {
		sum, err := circuits.HashFileSHA256(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		manifest.Artifacts[name] = types.HexStringToHexBytesMustUnmarshal(sum)
	}
	if err := circuits.WriteManifest(dir, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}
