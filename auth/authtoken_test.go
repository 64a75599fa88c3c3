package auth

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
)

func TestAdminToken(t *testing.T) {
	c := qt.New(t)

	admin, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	now := time.Now()

	token, err := NewAdminToken(admin, now)
	c.Assert(err, qt.IsNil)
	c.Assert(len(token), qt.Equals, tokenLen)

	_, timestamp, err := DecodeAdminToken(token)
	c.Assert(err, qt.IsNil)
	c.Assert(timestamp.Equal(now.UTC()), qt.IsTrue)

	v := NewVerifier(admin.Address(), time.Hour)
	c.Assert(v.Verify(token), qt.IsNil)
	c.Assert(v.VerifyHex(token.Hex()), qt.IsNil)

	// signed by someone else
	other, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	forged, err := NewAdminToken(other, now)
	c.Assert(err, qt.IsNil)
	c.Assert(errors.Is(v.Verify(forged), ErrInvalidToken), qt.IsTrue)

	// the timestamp is part of the signed message
	msg, _ := AdminTokenData(now)
	signature, err := admin.Sign([]byte(msg))
	c.Assert(err, qt.IsNil)
	replayed, err := EncodeAdminToken(signature, now.Add(-time.Minute))
	c.Assert(err, qt.IsNil)
	c.Assert(errors.Is(v.Verify(replayed), ErrInvalidToken), qt.IsTrue)

	c.Assert(errors.Is(v.Verify(token[:10]), ErrInvalidToken), qt.IsTrue)
	c.Assert(errors.Is(v.VerifyHex("zz"), ErrInvalidToken), qt.IsTrue)
}

func TestAdminTokenWindow(t *testing.T) {
	c := qt.New(t)

	admin, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	v := NewVerifier(admin.Address(), time.Hour)
	now := time.Now()
	v.now = func() time.Time { return now }

	old, err := NewAdminToken(admin, now.Add(-2*time.Hour))
	c.Assert(err, qt.IsNil)
	c.Assert(errors.Is(v.Verify(old), ErrExpiredToken), qt.IsTrue)

	future, err := NewAdminToken(admin, now.Add(time.Hour))
	c.Assert(err, qt.IsNil)
	c.Assert(errors.Is(v.Verify(future), ErrExpiredToken), qt.IsTrue)

	recent, err := NewAdminToken(admin, now.Add(-30*time.Minute))
	c.Assert(err, qt.IsNil)
	c.Assert(v.Verify(recent), qt.IsNil)
}
