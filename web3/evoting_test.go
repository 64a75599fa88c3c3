package web3

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/types"
)

var testTuple = &types.ProofTuple{
	A:             []string{"1", "2"},
	B:             [][]string{{"4", "3"}, {"6", "5"}},
	C:             []string{"7", "8"},
	PublicSignals: []string{"1", "4267533774488295900887461483015112262021273608761099826938271132511348470966"},
}

func TestPackVote(t *testing.T) {
	c := qt.New(t)
	contractABI, err := EVotingABI()
	c.Assert(err, qt.IsNil)

	data, err := PackVote(contractABI, 3, testTuple)
	c.Assert(err, qt.IsNil)
	selector := ethcrypto.Keccak256([]byte("vote(uint256,uint256,uint256[2],uint256[2][2],uint256[2],uint256[2])"))[:4]
	c.Assert(data[:4], qt.DeepEquals, selector)
	// static arguments only: 12 words
	c.Assert(len(data), qt.Equals, 4+12*32)

	word := func(i int) string {
		return new(big.Int).SetBytes(data[4+i*32 : 4+(i+1)*32]).String()
	}
	c.Assert(word(0), qt.Equals, "3")
	c.Assert(word(1), qt.Equals, testTuple.PublicSignals[1])
	c.Assert([]string{word(2), word(3)}, qt.DeepEquals, testTuple.A)
	// b goes through untouched, already in the verifier order
	c.Assert([]string{word(4), word(5), word(6), word(7)}, qt.DeepEquals, []string{"4", "3", "6", "5"})
	c.Assert([]string{word(8), word(9)}, qt.DeepEquals, testTuple.C)
	c.Assert([]string{word(10), word(11)}, qt.DeepEquals, testTuple.PublicSignals)

	_, err = PackVote(contractABI, 0, &types.ProofTuple{A: []string{"1"}})
	c.Assert(err, qt.IsNotNil)
	bad := *testTuple
	bad.C = []string{"7", "-8"}
	_, err = PackVote(contractABI, 0, &bad)
	c.Assert(err, qt.IsNotNil)
}

// fakeBackend answers contract calls from a fixed state. Methods it does not
// override panic through the nil embedded interface.
type fakeBackend struct {
	Backend
	abi        *abi.ABI
	names      []string
	counts     []*big.Int
	registered map[string]bool
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1337), nil
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "getCandidateNames":
		return method.Outputs.Pack(f.names)
	case "getCandidate":
		id := args[0].(*big.Int).Int64()
		if id >= int64(len(f.names)) {
			return nil, errors.New("execution reverted: invalid candidate")
		}
		return method.Outputs.Pack(f.names[id], f.counts[id])
	case "isRegistered", "hasVoted":
		return method.Outputs.Pack(f.registered[args[0].(*big.Int).String()])
	}
	return nil, errors.New("unexpected method " + method.Name)
}

func TestContractReads(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	contractABI, err := EVotingABI()
	c.Assert(err, qt.IsNil)
	backend := &fakeBackend{
		abi:        contractABI,
		names:      []string{"Alice", "Bob"},
		counts:     []*big.Int{big.NewInt(2), big.NewInt(5)},
		registered: map[string]bool{"42": true},
	}
	contract, err := New(ctx, backend, common.HexToAddress("0x01"), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(contract.ChainID.Int64(), qt.Equals, int64(1337))

	names, err := contract.CandidateNames(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"Alice", "Bob"})

	cand, err := contract.Candidate(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(*cand, qt.Equals, types.Candidate{ID: 1, Name: "Bob", VoteCount: 5})
	_, err = contract.Candidate(ctx, 7)
	c.Assert(err, qt.IsNotNil)

	ok, err := contract.IsRegistered(ctx, types.NewInt(42))
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	ok, err = contract.IsRegistered(ctx, types.NewInt(43))
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	// read-only without a signer
	_, err = contract.RegisterVoter(ctx, types.NewInt(43))
	c.Assert(errors.Is(err, ErrNoSigner), qt.IsTrue)
	_, err = contract.Vote(ctx, 0, testTuple)
	c.Assert(errors.Is(err, ErrNoSigner), qt.IsTrue)
}
