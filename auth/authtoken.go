// Package auth implements the admin tokens of the node. A token is an
// Ethereum signature over a fixed message carrying the signing time,
// followed by that time, so that the node can recover the signer without
// a session. Tokens expire after a bounded window.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/types"
)

const (
	timestampFormat  = "2006-01-02T15:04:05.000000000Z07:00" // RFC3339FixedNano
	adminSignMessage = `Authorizing admin on zkvote node at %s`

	signatureLen = ethereum.SignatureLength
	timestampLen = len(timestampFormat)
	tokenLen     = signatureLen + timestampLen

	// DefaultTokenTTL is how long a token is accepted after it was signed.
	DefaultTokenTTL = 24 * time.Hour
	// maxClockSkew tolerates tokens signed slightly in the future.
	maxClockSkew = time.Minute
)

var (
	// ErrInvalidToken is returned for tokens that cannot be decoded or are
	// not signed by the admin.
	ErrInvalidToken = errors.New("invalid admin token")
	// ErrExpiredToken is returned for tokens signed outside the window.
	ErrExpiredToken = errors.New("expired admin token")
)

// AdminTokenData returns the message to sign for a token created at
// timestamp, and the timestamp as encoded in the token.
func AdminTokenData(timestamp time.Time) (string, string) {
	t := timestamp.UTC().Format(timestampFormat)
	return fmt.Sprintf(adminSignMessage, t), t
}

// timestampToSuffix encodes the timestamp as the fixed length token suffix.
func timestampToSuffix(t time.Time) []byte {
	b := make([]byte, timestampLen)
	copy(b, []byte(t.UTC().Format(timestampFormat)))
	return b
}

// DecodeAdminToken splits a token into its signature and timestamp.
func DecodeAdminToken(bToken types.HexBytes) (*ethereum.ECDSASignature, time.Time, error) {
	if len(bToken) != tokenLen {
		return nil, time.Time{}, fmt.Errorf("%w: length %d", ErrInvalidToken, len(bToken))
	}
	bSignature, encTimestamp := bToken[:signatureLen], bToken[signatureLen:]
	timestamp, err := time.Parse(timestampFormat, string(bytes.TrimRight(encTimestamp, "\x00")))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: timestamp: %w", ErrInvalidToken, err)
	}
	signature, err := ethereum.BytesToSignature(bSignature)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: signature: %w", ErrInvalidToken, err)
	}
	return signature, timestamp, nil
}

// EncodeAdminToken concatenates the signature and the timestamp suffix.
func EncodeAdminToken(signature *ethereum.ECDSASignature, timestamp time.Time) (types.HexBytes, error) {
	if !signature.Valid() {
		return nil, fmt.Errorf("signature cannot be nil")
	}
	token := make([]byte, tokenLen)
	copy(token, signature.Bytes())
	copy(token[signatureLen:], timestampToSuffix(timestamp))
	return types.HexBytes(token), nil
}

// NewAdminToken signs a token created now with signer.
func NewAdminToken(signer *ethereum.Signer, now time.Time) (types.HexBytes, error) {
	msg, _ := AdminTokenData(now)
	signature, err := signer.Sign([]byte(msg))
	if err != nil {
		return nil, err
	}
	return EncodeAdminToken(signature, now)
}

// Verifier checks admin tokens against the configured admin address.
type Verifier struct {
	admin common.Address
	ttl   time.Duration
	now   func() time.Time
}

// NewVerifier returns a token verifier for admin. A zero ttl uses
// DefaultTokenTTL.
func NewVerifier(admin common.Address, ttl time.Duration) *Verifier {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &Verifier{admin: admin, ttl: ttl, now: time.Now}
}

// Admin returns the admin address.
func (v *Verifier) Admin() common.Address {
	return v.admin
}

// Verify checks that the token was signed by the admin within the window.
func (v *Verifier) Verify(bToken types.HexBytes) error {
	signature, timestamp, err := DecodeAdminToken(bToken)
	if err != nil {
		return err
	}
	now := v.now()
	if timestamp.After(now.Add(maxClockSkew)) || now.Sub(timestamp) > v.ttl {
		return ErrExpiredToken
	}
	msg, _ := AdminTokenData(timestamp)
	if ok, _ := signature.Verify([]byte(msg), v.admin); !ok {
		return fmt.Errorf("%w: not signed by the admin", ErrInvalidToken)
	}
	return nil
}

// VerifyHex is like Verify for a hex encoded token.
func (v *Verifier) VerifyHex(hexToken string) error {
	token, err := types.HexStringToHexBytes(hexToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return v.Verify(token)
}
