package web3

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/types"
)

// newSimulatedContract funds signer on a simulated chain and binds a
// contract whose code only stops, so every call succeeds. Blocks are mined
// in the background until the test ends.
func newSimulatedContract(c *qt.C, signer *ethereum.Signer) (*Contract, *simulated.Backend) {
	address := common.HexToAddress("0x00000000000000000000000000000000000e0001")
	sim := simulated.NewBackend(gethtypes.GenesisAlloc{
		signer.Address(): {Balance: new(big.Int).Mul(big.NewInt(1e18), big.NewInt(100))},
		address:          {Code: []byte{0x00}, Balance: big.NewInt(0)},
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sim.Commit()
			}
		}
	}()
	c.Cleanup(func() {
		cancel()
		<-done
		c.Assert(sim.Close(), qt.IsNil)
	})

	contract, err := New(context.Background(), sim.Client(), address, signer)
	c.Assert(err, qt.IsNil)
	return contract, sim
}

func TestTxManagerOrder(t *testing.T) {
	c := qt.New(t)
	signer, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	contract, sim := newSimulatedContract(c, signer)

	results := make(chan TxResult, 16)
	tm := NewTxManager(contract, time.Minute, func(res TxResult) { results <- res })
	tm.Start()

	// submitted concurrently by the handlers, sent one by one
	c.Assert(tm.RegisterVoter(types.NewInt(1)), qt.IsNil)
	c.Assert(tm.RegisterVoter(types.NewInt(2)), qt.IsNil)
	c.Assert(tm.AddCandidate("Alice"), qt.IsNil)
	c.Assert(tm.Vote(0, testTuple), qt.IsNil)
	bad := *testTuple
	bad.A = []string{"1"}
	c.Assert(tm.Vote(0, &bad), qt.IsNotNil)

	methods := []string{"registerVoter", "registerVoter", "addCandidate", "vote"}
	for i, method := range methods {
		res := <-results
		c.Assert(res.Err, qt.IsNil, qt.Commentf("tx %d", i))
		c.Assert(res.Method, qt.Equals, method)
		c.Assert(res.Tx.Nonce(), qt.Equals, uint64(i))
	}

	// a transaction sent outside the manager takes its next nonce
	ctx := context.Background()
	tx, err := contract.RegisterVoter(ctx, types.NewInt(3))
	c.Assert(err, qt.IsNil)
	c.Assert(tx.Nonce(), qt.Equals, uint64(len(methods)))
	waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	c.Assert(contract.WaitTx(waitCtx, tx.Hash()), qt.IsNil)

	// the manager resyncs after the rejected nonce
	c.Assert(tm.RegisterVoter(types.NewInt(4)), qt.IsNil)
	res := <-results
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.Tx.Nonce(), qt.Equals, uint64(len(methods)+1))

	tm.Stop()
	c.Assert(errors.Is(tm.AddCandidate("Bob"), ErrTxManagerStopped), qt.IsTrue)
	nonce, err := sim.Client().NonceAt(ctx, signer.Address(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(nonce, qt.Equals, uint64(len(methods)+2))
}

func TestTxManagerWithoutSigner(t *testing.T) {
	c := qt.New(t)
	contractABI, err := EVotingABI()
	c.Assert(err, qt.IsNil)
	contract, err := New(context.Background(), &fakeBackend{abi: contractABI}, common.HexToAddress("0x01"), nil)
	c.Assert(err, qt.IsNil)

	results := make(chan TxResult, 1)
	tm := NewTxManager(contract, time.Second, func(res TxResult) { results <- res })
	tm.Start()
	c.Assert(tm.RegisterVoter(types.NewInt(1)), qt.IsNil)
	res := <-results
	c.Assert(errors.Is(res.Err, ErrNoSigner), qt.IsTrue)
	c.Assert(res.Tx, qt.IsNil)
	tm.Stop()
	tm.Stop()
}
