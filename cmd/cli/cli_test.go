package main

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/types"
)

func TestOfflineServices(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	signer, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	s, err := NewCLIServices(ctx, "", signer.HexPrivateKey().Hex(), "", "", types.DefaultElectionID)
	c.Assert(err, qt.IsNil)
	c.Assert(s.admin.Address(), qt.Equals, signer.Address())
	c.Assert(s.AdminToken(), qt.IsNil)

	// the candidate ID is checked before reaching the node
	c.Assert(s.Vote("12345", "first"), qt.ErrorMatches, `invalid candidate id "first"`)

	s, err = NewCLIServices(ctx, "", "", "", "", types.DefaultElectionID)
	c.Assert(err, qt.IsNil)
	c.Assert(s.AdminToken(), qt.ErrorMatches, "admin key required")

	_, err = NewCLIServices(ctx, "", "zz", "", "", types.DefaultElectionID)
	c.Assert(err, qt.ErrorMatches, "invalid admin key: .*")
	_, err = NewCLIServices(ctx, "", "", "http://127.0.0.1:8545", "not-an-address", types.DefaultElectionID)
	c.Assert(err, qt.ErrorMatches, `invalid contract address "not-an-address"`)
}
