package circuits

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark/constraint"
)

// HashConstraintSystem returns the SHA256 hash of a constraint system.
func HashConstraintSystem(cs constraint.ConstraintSystem) (string, error) {
	hasher := sha256.New()
	if _, err := cs.WriteTo(hasher); err != nil {
		return "", fmt.Errorf("write ccs to hasher: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashBytesSHA256 returns the SHA256 hash of the provided byte slice.
func HashBytesSHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFileSHA256 returns the SHA256 hash of the file at path.
func HashFileSHA256(path string) (string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fd.Close() //nolint:errcheck
	hasher := sha256.New()
	if _, err := io.Copy(hasher, fd); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
