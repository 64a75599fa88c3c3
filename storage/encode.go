package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the deterministic CBOR encoding of every stored artifact.
var encMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoding mode: %v", err))
	}
	return em
}()

// EncodeArtifact encodes a as deterministic CBOR.
func EncodeArtifact(a any) ([]byte, error) {
	return encMode.Marshal(a)
}

// DecodeArtifact decodes CBOR data into out.
func DecodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}
