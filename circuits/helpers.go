package circuits

import (
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/vocdoni/zkvote-node/log"
)

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(io.Writer) (int64, error)) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := fd.Close(); err != nil {
			log.Warnw("error closing file", "path", path, "error", err)
		}
	}()
	if _, err := write(fd); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Debugw("circuit artifact written", "path", path)
	return nil
}

func readFile(path string, read func(io.Reader) (int64, error)) error {
	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := fd.Close(); err != nil {
			log.Warnw("error closing file", "path", path, "error", err)
		}
	}()
	if _, err := read(fd); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// StoreConstraintSystem stores the constraint system in a file.
func StoreConstraintSystem(cs constraint.ConstraintSystem, path string) error {
	return writeFile(path, cs.WriteTo)
}

// StoreProvingKey stores the proving key in a file, in raw (uncompressed)
// form.
func StoreProvingKey(pk groth16.ProvingKey, path string) error {
	return writeFile(path, pk.WriteRawTo)
}

// StoreVerificationKey stores the verification key in a file.
func StoreVerificationKey(vk groth16.VerifyingKey, path string) error {
	return writeFile(path, vk.WriteRawTo)
}

// LoadConstraintSystem reads a constraint system for curve from a file.
func LoadConstraintSystem(curve ecc.ID, path string) (constraint.ConstraintSystem, error) {
	cs := groth16.NewCS(curve)
	if err := readFile(path, cs.ReadFrom); err != nil {
		return nil, err
	}
	return cs, nil
}

// LoadProvingKey reads a raw proving key for curve from a file.
func LoadProvingKey(curve ecc.ID, path string) (groth16.ProvingKey, error) {
	pk := groth16.NewProvingKey(curve)
	if err := readFile(path, pk.UnsafeReadFrom); err != nil {
		return nil, err
	}
	return pk, nil
}

// LoadVerificationKey reads a verification key for curve from a file.
func LoadVerificationKey(curve ecc.ID, path string) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(curve)
	if err := readFile(path, vk.ReadFrom); err != nil {
		return nil, err
	}
	return vk, nil
}
