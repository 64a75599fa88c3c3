package web3

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
)

// txQueueSize is the number of transactions that can wait to be sent.
const txQueueSize = 256

var (
	// ErrTxQueueFull is returned when too many transactions are waiting.
	ErrTxQueueFull = errors.New("transaction queue is full")
	// ErrTxManagerStopped is returned for transactions submitted after Stop.
	ErrTxManagerStopped = errors.New("transaction manager stopped")
)

// TxResult is the outcome of a managed transaction. Tx is nil when the
// transaction could not be sent.
type TxResult struct {
	Method string
	Tx     *gethtypes.Transaction
	Err    error
}

type queuedTx struct {
	method string
	params []any
}

// TxManager sends the contract transactions of one account in submission
// order. It assigns the nonces itself and waits for each transaction to be
// mined before sending the next one, so a registration always lands before
// the votes submitted after it.
type TxManager struct {
	contract *Contract
	timeout  time.Duration
	onResult func(TxResult)

	mu      sync.RWMutex
	stopped bool
	queue   chan queuedTx
	wg      sync.WaitGroup

	// owned by the worker goroutine
	nextNonce uint64
	synced    bool
}

// NewTxManager returns a manager for the transactions of contract. Each
// transaction gets timeout to be sent and mined. onResult, if not nil, is
// called from the worker goroutine with every outcome.
func NewTxManager(contract *Contract, timeout time.Duration, onResult func(TxResult)) *TxManager {
	return &TxManager{
		contract: contract,
		timeout:  timeout,
		onResult: onResult,
		queue:    make(chan queuedTx, txQueueSize),
	}
}

// Start launches the worker sending the queued transactions.
func (tm *TxManager) Start() {
	tm.wg.Add(1)
	go func() {
		defer tm.wg.Done()
		for qtx := range tm.queue {
			tm.process(qtx)
		}
	}()
}

// Stop rejects new transactions and waits for the queued ones.
func (tm *TxManager) Stop() {
	tm.mu.Lock()
	if !tm.stopped {
		tm.stopped = true
		close(tm.queue)
	}
	tm.mu.Unlock()
	tm.wg.Wait()
}

// RegisterVoter queues the registration of commitment.
func (tm *TxManager) RegisterVoter(commitment *types.BigInt) error {
	return tm.submit("registerVoter", commitment.MathBigInt())
}

// AddCandidate queues the addition of a candidate.
func (tm *TxManager) AddCandidate(name string) error {
	return tm.submit("addCandidate", name)
}

// Vote queues a vote. Malformed proofs are rejected before queuing.
func (tm *TxManager) Vote(candidateID uint64, proof *types.ProofTuple) error {
	params, err := voteParams(candidateID, proof)
	if err != nil {
		return err
	}
	return tm.submit("vote", params...)
}

func (tm *TxManager) submit(method string, params ...any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.stopped {
		return ErrTxManagerStopped
	}
	select {
	case tm.queue <- queuedTx{method: method, params: params}:
		return nil
	default:
		return ErrTxQueueFull
	}
}

func (tm *TxManager) process(qtx queuedTx) {
	ctx, cancel := context.WithTimeout(context.Background(), tm.timeout)
	defer cancel()
	tx, err := tm.send(ctx, qtx)
	if err == nil {
		err = tm.contract.WaitTx(ctx, tx.Hash())
	}
	if tm.onResult != nil {
		tm.onResult(TxResult{Method: qtx.method, Tx: tx, Err: err})
	}
}

// send sends the transaction with the next managed nonce. A nonce rejected
// by the node is resynchronized from the chain and the send retried once.
func (tm *TxManager) send(ctx context.Context, qtx queuedTx) (*gethtypes.Transaction, error) {
	if tm.contract.signer == nil {
		return nil, ErrNoSigner
	}
	for attempt := 0; ; attempt++ {
		if !tm.synced {
			if err := tm.syncNonce(ctx); err != nil {
				return nil, err
			}
		}
		nonce := new(big.Int).SetUint64(tm.nextNonce)
		tx, err := tm.contract.transactWithNonce(ctx, nonce, qtx.method, qtx.params...)
		if err == nil {
			tm.nextNonce++
			return tx, nil
		}
		tm.synced = false
		if !isNonceError(err) || attempt > 0 {
			return nil, err
		}
		log.Debugw("nonce rejected, resyncing", "method", qtx.method, "nonce", nonce.Uint64(), "error", err)
	}
}

func (tm *TxManager) syncNonce(ctx context.Context) error {
	nonce, err := tm.contract.backend.PendingNonceAt(ctx, tm.contract.signer.Address())
	if err != nil {
		return fmt.Errorf("failed to get account nonce: %w", err)
	}
	tm.nextNonce = nonce
	tm.synced = true
	return nil
}

// isNonceError checks if an error is related to nonce issues
func isNonceError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "nonce too high") ||
		strings.Contains(msg, "already known")
}
