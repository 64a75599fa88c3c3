package prover

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/iden3/go-rapidsnark/prover"
	"github.com/iden3/go-rapidsnark/witness"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// RapidsnarkProver proves a circom build of the voter circuit: the witness
// is computed by the circuit wasm and the proof by rapidsnark with the
// zkey. The native prover and the wasm runtime are not safe for
// concurrent use, so proofs are generated one at a time.
type RapidsnarkProver struct {
	mu   sync.Mutex
	calc *witness.Circom2WitnessCalculator
	zkey []byte
}

// NewRapidsnarkProver instantiates the witness calculator once, so that its
// runtime is reused across proofs.
func NewRapidsnarkProver(wasm, zkey []byte) (*RapidsnarkProver, error) {
	if len(wasm) == 0 || len(zkey) == 0 {
		return nil, fmt.Errorf("rapidsnark prover requires the circuit wasm and zkey")
	}
	calc, err := witness.NewCircom2WitnessCalculator(wasm, true)
	if err != nil {
		return nil, fmt.Errorf("instance witness calculator: %w", err)
	}
	return &RapidsnarkProver{calc: calc, zkey: zkey}, nil
}

// LoadRapidsnarkProver reads the wasm and zkey files.
func LoadRapidsnarkProver(wasmPath, zkeyPath string) (*RapidsnarkProver, error) {
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, err
	}
	zkey, err := os.ReadFile(zkeyPath)
	if err != nil {
		return nil, err
	}
	return NewRapidsnarkProver(wasm, zkey)
}

// circomInputs builds the input document of the circom witness
// calculator.
func circomInputs(identifier string, inputs Inputs) ([]byte, error) {
	doc := make(map[string]string, len(inputs)+1)
	for k, v := range inputs {
		doc[k] = v
	}
	doc[SignalIdentifier] = identifier
	return json.Marshal(doc)
}

// Prove implements Prover.
func (r *RapidsnarkProver) Prove(ctx context.Context, identifier string, inputs Inputs) (*circomgnark.CircomProof, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	raw, err := circomInputs(identifier, inputs)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := witness.ParseInputs(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("circom inputs: %w", err)
	}

	r.mu.Lock()
	w, err := r.calc.CalculateWTNSBin(parsed, true)
	if err != nil {
		r.mu.Unlock()
		return nil, nil, fmt.Errorf("calculate witness: %w", err)
	}
	proof, pubSignals, err := prover.Groth16ProverRaw(r.zkey, w)
	r.mu.Unlock()
	if err != nil {
		return nil, nil, fmt.Errorf("rapidsnark: %w", err)
	}
	log.Debugw("voter proof generated", "backend", "rapidsnark")
	return circomgnark.UnmarshalCircom(proof, pubSignals)
}
