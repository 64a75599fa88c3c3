// Package web3 is the client of the EVoting contract, the on-chain
// counterpart of the vote ledger. The contract verifies the same proof tuple
// as the node and keeps its own registry and candidate counts.
package web3

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
)

const (
	// web3QueryTimeout is the timeout for web3 queries.
	web3QueryTimeout = 10 * time.Second
	// txPollInterval is the interval between receipt queries.
	txPollInterval = time.Second
)

// ErrNoSigner is returned by transactions on a read-only contract.
var ErrNoSigner = errors.New("no signer defined")

// Backend is the subset of the client API used by the contract.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
}

// Contract is a binding of a deployed EVoting contract.
type Contract struct {
	Address common.Address
	ChainID *big.Int

	abi     *abi.ABI
	bound   *bind.BoundContract
	backend Backend
	signer  *ethereum.Signer
}

// Dial connects to the web3 endpoint and binds the contract at address.
// Without a signer the contract is read-only.
func Dial(ctx context.Context, rpcURL string, address common.Address, signer *ethereum.Signer) (*Contract, error) {
	cli, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial web3 endpoint: %w", err)
	}
	return New(ctx, cli, address, signer)
}

// New binds the contract at address using backend.
func New(ctx context.Context, backend Backend, address common.Address, signer *ethereum.Signer) (*Contract, error) {
	contractABI, err := EVotingABI()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, web3QueryTimeout)
	defer cancel()
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	c := &Contract{
		Address: address,
		ChainID: chainID,
		abi:     contractABI,
		bound:   bind.NewBoundContract(address, *contractABI, backend, backend, backend),
		backend: backend,
		signer:  signer,
	}
	account := "none"
	if signer != nil {
		account = signer.Address().Hex()
	}
	log.Infow("web3 client initialized", "chainID", chainID.String(), "contract", address.Hex(), "account", account)
	return c, nil
}

// ABI returns the parsed contract ABI.
func (c *Contract) ABI() *abi.ABI {
	return c.abi
}

func (c *Contract) call(ctx context.Context, method string, params ...any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, web3QueryTimeout)
	defer cancel()
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (c *Contract) transact(ctx context.Context, method string, params ...any) (*gethtypes.Transaction, error) {
	return c.transactWithNonce(ctx, nil, method, params...)
}

// transactWithNonce sends a transaction with the given nonce, or the pending
// nonce of the account when nonce is nil.
func (c *Contract) transactWithNonce(ctx context.Context, nonce *big.Int, method string, params ...any) (*gethtypes.Transaction, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	opts, err := c.signer.TransactOpts(c.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.Nonce = nonce
	tx, err := c.bound.Transact(opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	log.Debugw("transaction sent", "method", method, "tx", tx.Hash().Hex())
	return tx, nil
}

// RegisterVoter registers an identity commitment on the contract.
func (c *Contract) RegisterVoter(ctx context.Context, commitment *types.BigInt) (*gethtypes.Transaction, error) {
	return c.transact(ctx, "registerVoter", commitment.MathBigInt())
}

// AddCandidate adds a candidate on the contract.
func (c *Contract) AddCandidate(ctx context.Context, name string) (*gethtypes.Transaction, error) {
	return c.transact(ctx, "addCandidate", name)
}

// Vote submits a vote with the proof tuple.
func (c *Contract) Vote(ctx context.Context, candidateID uint64, proof *types.ProofTuple) (*gethtypes.Transaction, error) {
	params, err := voteParams(candidateID, proof)
	if err != nil {
		return nil, err
	}
	return c.transact(ctx, "vote", params...)
}

func voteParams(candidateID uint64, proof *types.ProofTuple) ([]any, error) {
	args, err := NewVoteArgs(candidateID, proof)
	if err != nil {
		return nil, err
	}
	return []any{args.CandidateID, args.VoterHash, args.A, args.B, args.C, args.Input}, nil
}

// Candidate returns the name and vote count of a candidate.
func (c *Contract) Candidate(ctx context.Context, id uint64) (*types.Candidate, error) {
	out, err := c.call(ctx, "getCandidate", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("getCandidate: unexpected output %v", out)
	}
	name, ok := out[0].(string)
	count, ok2 := out[1].(*big.Int)
	if !ok || !ok2 {
		return nil, fmt.Errorf("getCandidate: unexpected output types %T, %T", out[0], out[1])
	}
	return &types.Candidate{ID: id, Name: name, VoteCount: count.Uint64()}, nil
}

// CandidateNames returns the names of the candidates, ordered by ID.
func (c *Contract) CandidateNames(ctx context.Context) ([]string, error) {
	out, err := c.call(ctx, "getCandidateNames")
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getCandidateNames: unexpected output %v", out)
	}
	names, ok := out[0].([]string)
	if !ok {
		return nil, fmt.Errorf("getCandidateNames: unexpected output type %T", out[0])
	}
	return names, nil
}

// IsRegistered reports whether the commitment is registered on the contract.
func (c *Contract) IsRegistered(ctx context.Context, commitment *types.BigInt) (bool, error) {
	return c.boolCall(ctx, "isRegistered", commitment)
}

// HasVoted reports whether the commitment already voted on the contract.
func (c *Contract) HasVoted(ctx context.Context, commitment *types.BigInt) (bool, error) {
	return c.boolCall(ctx, "hasVoted", commitment)
}

func (c *Contract) boolCall(ctx context.Context, method string, commitment *types.BigInt) (bool, error) {
	out, err := c.call(ctx, method, commitment.MathBigInt())
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("%s: unexpected output %v", method, out)
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

// WaitTx waits until the transaction is mined and returns an error if it
// reverted or ctx is done first.
func (c *Contract) WaitTx(ctx context.Context, txHash common.Hash) error {
	ticker := time.NewTicker(txPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt.Status == gethtypes.ReceiptStatusSuccessful:
			return nil
		case err == nil:
			return fmt.Errorf("tx %s reverted", txHash.Hex())
		case !errors.Is(err, goethereum.NotFound):
			return fmt.Errorf("failed to get transaction receipt: %w", err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for tx %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
