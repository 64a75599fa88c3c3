package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/zkvote-node/circuits"
	"github.com/vocdoni/zkvote-node/circuits/voter"
	"github.com/vocdoni/zkvote-node/identity"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/verifier"
)

// selfCheckIdentifier is proven after the setup to check the artifacts.
const selfCheckIdentifier = "12345"

func main() {
	// Configuration flags
	var destination string
	var updateConfig bool
	var configPath string
	var selfCheck bool
	s3Config := NewDefaultS3Config()

	flag.StringVar(&destination, "destination", "artifacts", "destination folder for the artifacts")
	flag.BoolVar(&updateConfig, "update-config", false, "update circuit_artifacts.go with the new manifest hash")
	flag.StringVar(&configPath, "config-path", "", "path to circuit_artifacts.go file (auto-detected if not specified)")
	flag.BoolVar(&selfCheck, "self-check", true, "prove and verify a sample vote with the new keys")

	// S3 configuration flags
	flag.BoolVar(&s3Config.Enabled, "s3.enabled", false, "enable S3 uploads")
	flag.StringVar(&s3Config.HostBase, "s3.host-base", s3Config.HostBase, "S3 host base")
	flag.StringVar(&s3Config.AccessKey, "s3.access-key", "", "S3 access key")
	flag.StringVar(&s3Config.SecretKey, "s3.secret-key", "", "S3 secret key")
	flag.StringVar(&s3Config.Space, "s3.space", s3Config.Space, "S3 space (bucket name)")
	flag.StringVar(&s3Config.Bucket, "s3.bucket", s3Config.Bucket, "S3 bucket (folder name)")

	flag.Parse()
	log.Init("debug", "stdout", nil)

	ctx := context.Background()
	if s3Config.Enabled {
		if err := TestS3Connection(ctx, s3Config); err != nil {
			log.Fatalf("S3 connection test failed: %v", err)
		}
	}

	// Compile and setup the voter circuit
	startTime := time.Now()
	log.Infow("compiling voter circuit and running groth16 setup...")
	keys, err := voter.Setup()
	if err != nil {
		log.Fatalf("error setting up voter circuit: %v", err)
	}
	log.Infow("voter circuit setup done", "elapsed", time.Since(startTime).String())

	// Write the artifacts to disk
	manifest, err := keys.Store(destination)
	if err != nil {
		log.Fatalf("error writing voter artifacts: %v", err)
	}
	solidityFile := filepath.Join(destination, voter.SolidityVerifierFile)
	if err := insertProvingKeyHashToVerifierSolidity(solidityFile, manifest.Artifacts[voter.ProvingKeyFile].Hex()); err != nil {
		log.Fatalf("error patching solidity verifier: %v", err)
	}
	sum, err := circuits.HashFileSHA256(solidityFile)
	if err != nil {
		log.Fatalf("error hashing solidity verifier: %v", err)
	}
	manifest.Artifacts[voter.SolidityVerifierFile] = types.HexStringToHexBytesMustUnmarshal(sum)
	if err := circuits.WriteManifest(destination, manifest); err != nil {
		log.Fatalf("error writing manifest: %v", err)
	}
	manifestHash, err := circuits.HashFileSHA256(filepath.Join(destination, circuits.ManifestFile))
	if err != nil {
		log.Fatalf("error hashing manifest: %v", err)
	}

	for _, name := range manifest.Names() {
		log.Infow("artifact", "file", name, "sha256", manifest.Artifacts[name].Hex())
	}
	log.Infow("manifest", "file", circuits.ManifestFile, "sha256", manifestHash)

	if selfCheck {
		if err := runSelfCheck(ctx, keys); err != nil {
			log.Fatalf("self check failed: %v", err)
		}
	}

	if updateConfig {
		if configPath == "" {
			if configPath, err = FindCircuitArtifactsFile(); err != nil {
				log.Fatalf("error locating circuit artifacts config: %v", err)
			}
		}
		if err := UpdateCircuitArtifactsConfig(map[string]string{"VoterManifestHash": manifestHash}, configPath); err != nil {
			log.Fatalf("error updating circuit artifacts config: %v", err)
		}
	}

	if s3Config.Enabled {
		files := []string{filepath.Join(destination, circuits.ManifestFile)}
		for _, name := range manifest.Names() {
			files = append(files, filepath.Join(destination, name))
		}
		if err := UploadFiles(ctx, files, s3Config); err != nil {
			log.Fatalf("error uploading artifacts: %v", err)
		}
	}
	log.Infow("voter circuit artifacts ready", "destination", destination)
}

// runSelfCheck proves a vote for a sample identifier with the gnark prover
// and checks it with the snarkjs verification key, as the node would.
func runSelfCheck(ctx context.Context, keys *voter.Keys) error {
	cvk, err := keys.CircomVerificationKey()
	if err != nil {
		return err
	}
	v, err := verifier.New(cvk)
	if err != nil {
		return err
	}
	gp, err := prover.NewGnarkProver(keys)
	if err != nil {
		return err
	}
	tuple, err := prover.NewAssembler(gp, identity.New(nil)).AssembleVoteProof(ctx, selfCheckIdentifier, nil)
	if err != nil {
		return err
	}
	ok, err := v.VerifyTuple(tuple)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("sample proof does not verify")
	}
	if tuple.PublicSignals[types.PublicSignalEligible] != "1" {
		return fmt.Errorf("unexpected eligibility flag %s", tuple.PublicSignals[types.PublicSignalEligible])
	}
	log.Infow("self check passed", "commitment", tuple.PublicSignals[types.PublicSignalCommitment])
	return nil
}

// insertProvingKeyHashToVerifierSolidity injects a
// `bytes32 constant PROVING_KEY_HASH = 0x…;` line immediately after the
// `contract <Name> {` declaration of the generated verifier.
func insertProvingKeyHashToVerifierSolidity(filePath, hexHash string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filePath, err)
	}
	re := regexp.MustCompile(`(?m)^(contract\s+\w+\s*\{)`)
	if !re.Match(data) {
		return fmt.Errorf("no contract declaration in %s", filePath)
	}
	inject := fmt.Sprintf("$1\n    bytes32 constant PROVING_KEY_HASH = 0x%s;", hexHash)
	patched := re.ReplaceAll(data, []byte(inject))
	return os.WriteFile(filePath, patched, 0o644)
}
