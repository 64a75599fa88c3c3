package identity

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/iden3/go-iden3-crypto/poseidon"
	hashposeidon "github.com/vocdoni/zkvote-node/crypto/hash/poseidon"
)

func TestCommitDeterministic(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	g := New(nil)

	first, err := g.Commit(ctx, "12345")
	c.Assert(err, qt.IsNil)
	again, err := g.Commit(ctx, "  12345\n")
	c.Assert(err, qt.IsNil)
	c.Assert(again.String(), qt.Equals, first.String())

	// a fresh generator, as another process would have
	other, err := New(hashposeidon.NewHasher(nil)).Commit(ctx, "12345")
	c.Assert(err, qt.IsNil)
	c.Assert(other.String(), qt.Equals, first.String())

	want, err := poseidon.Hash([]*big.Int{big.NewInt(12345)})
	c.Assert(err, qt.IsNil)
	c.Assert(first.MathBigInt().Cmp(want), qt.Equals, 0)
}

func TestCommitDistinct(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	g := New(nil)
	ids := []string{"12345", "12346", "012345x", "alice", "bob", "Alice", "1", "0", "ID-0001"}
	seen := map[string]string{}
	for _, id := range ids {
		h, err := g.Commit(ctx, id)
		c.Assert(err, qt.IsNil)
		prev, dup := seen[h.String()]
		c.Assert(dup, qt.IsFalse, qt.Commentf("%q collides with %q", id, prev))
		seen[h.String()] = id
	}
}

func TestCommitAcrossEncodings(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	g := New(nil)
	// each pair used to share a field element: the byte value of the first
	// equals the decimal value of the second
	pairs := [][2]string{
		{"ab", "24930"},
		{"a", "97"},
		{"AB12", "1094857010"},
		{"007", "7"},
		{"\x00a", "a"},
	}
	for _, pair := range pairs {
		first, err := g.Commit(ctx, pair[0])
		c.Assert(err, qt.IsNil)
		second, err := g.Commit(ctx, pair[1])
		c.Assert(err, qt.IsNil)
		c.Assert(first.String(), qt.Not(qt.Equals), second.String(), qt.Commentf("%q vs %q", pair[0], pair[1]))
	}

	// the largest numeric identifier and the shortest byte identifier
	limit := new(big.Int).Lsh(big.NewInt(1), 248)
	top, err := Canonicalize(new(big.Int).Sub(limit, big.NewInt(1)).String())
	c.Assert(err, qt.IsNil)
	c.Assert(top.Cmp(limit), qt.Equals, -1)
	low, err := Canonicalize("0a")
	c.Assert(err, qt.IsNil)
	c.Assert(low.Cmp(limit) > 0, qt.IsTrue)
}

func TestCanonicalize(t *testing.T) {
	c := qt.New(t)
	v, err := Canonicalize(" 42 ")
	c.Assert(err, qt.IsNil)
	c.Assert(v.Int64(), qt.Equals, int64(42))

	v, err = Canonicalize("ab")
	c.Assert(err, qt.IsNil)
	want := new(big.Int).Lsh(big.NewInt(2), 248)
	want.Or(want, big.NewInt(0x6162))
	c.Assert(v.Cmp(want), qt.Equals, 0)

	// leading zeros select the byte encoding
	v, err = Canonicalize("007")
	c.Assert(err, qt.IsNil)
	c.Assert(v.Cmp(big.NewInt(7)), qt.Not(qt.Equals), 0)

	for _, raw := range []string{"", "   \t", strings.Repeat("x", 32),
		// the BN254 scalar field modulus itself
		"21888242871839275222246405745257275088548364400416034343698204186575808495617"} {
		_, err := Canonicalize(raw)
		c.Assert(errors.Is(err, ErrInvalidInput), qt.IsTrue, qt.Commentf("input %q", raw))
	}
}

func TestCommitBackendUnavailable(t *testing.T) {
	c := qt.New(t)
	g := New(hashposeidon.NewHasher(func(context.Context) (hashposeidon.Backend, error) {
		return nil, errors.New("no constants")
	}))
	_, err := g.Commit(context.Background(), "12345")
	c.Assert(errors.Is(err, hashposeidon.ErrHashBackendUnavailable), qt.IsTrue)

	// input validation happens before touching the backend
	_, err = g.Commit(context.Background(), "")
	c.Assert(errors.Is(err, ErrInvalidInput), qt.IsTrue)
}
