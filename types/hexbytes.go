package types

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/vocdoni/zkvote-node/util"
)

// HexBytes is a []byte which encodes as hexadecimal in json, as opposed to the
// base64 default.
type HexBytes []byte

// Hex returns the hexadecimal string representation of the HexBytes.
func (b HexBytes) Hex() string {
	return hex.EncodeToString(b)
}

// String returns the hexadecimal string prefixed with "0x".
func (b HexBytes) String() string {
	return "0x" + b.Hex()
}

// BigInt converts the HexBytes to a BigInt read as big-endian.
func (b HexBytes) BigInt() *BigInt {
	return (*BigInt)(new(big.Int).SetBytes(b))
}

// MarshalJSON encodes the byte slice as a "0x" prefixed hexadecimal string.
func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+4)
	enc[0] = '"'
	enc[1] = '0'
	enc[2] = 'x'
	hex.Encode(enc[3:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

// UnmarshalJSON expects a JSON string containing a hexadecimal
// representation, optionally prefixed with "0x".
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	decoded, err := HexStringToHexBytes(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// HexStringToHexBytes converts a hex string, with or without the "0x"
// prefix, to HexBytes.
func HexStringToHexBytes(hexString string) (HexBytes, error) {
	b, err := hex.DecodeString(util.TrimHex(hexString))
	if err != nil {
		return nil, fmt.Errorf("invalid hex string %q: %w", hexString, err)
	}
	return b, nil
}

// HexStringToHexBytesMustUnmarshal is like HexStringToHexBytes but panics on
// invalid input. Only for compiled-in constants.
func HexStringToHexBytesMustUnmarshal(hexString string) HexBytes {
	b, err := HexStringToHexBytes(hexString)
	if err != nil {
		panic(err)
	}
	return b
}
