// Package poseidon provides the Poseidon hashing backend over the BN254
// scalar field, together with a Hasher that owns its lazy, single-flight
// initialization.
package poseidon

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/vocdoni/zkvote-node/log"
	"golang.org/x/sync/singleflight"
)

// ErrHashBackendUnavailable is returned when the hashing backend could not be
// initialized, or the caller gave up waiting for its initialization.
var ErrHashBackendUnavailable = errors.New("hash backend unavailable")

// Backend computes Poseidon digests.
type Backend interface {
	Hash(inputs ...*big.Int) (*big.Int, error)
}

// BackendFactory builds a ready to use Backend. It is called at most once per
// successful initialization of a Hasher.
type BackendFactory func(ctx context.Context) (Backend, error)

// knownAnswer is Poseidon([1, 2]) as computed by circomlib.
var knownAnswer, _ = new(big.Int).SetString(
	"7853200120776062878684798364095072458815029376092732009249414926327459813530", 10)

type idenBackend struct{}

func (idenBackend) Hash(inputs ...*big.Int) (*big.Int, error) {
	return MultiPoseidon(inputs...)
}

// NewIdenBackend returns the iden3 Poseidon backend after checking it against
// a known answer.
func NewIdenBackend(_ context.Context) (Backend, error) {
	b := idenBackend{}
	got, err := b.Hash(big.NewInt(1), big.NewInt(2))
	if err != nil {
		return nil, fmt.Errorf("poseidon self-test: %w", err)
	}
	if got.Cmp(knownAnswer) != 0 {
		return nil, fmt.Errorf("poseidon self-test: unexpected digest %s", got)
	}
	return b, nil
}

// Hasher hands out a lazily initialized Backend. Concurrent callers that
// arrive before the backend is ready share the same in-flight
// initialization; a failed initialization is retried by the next caller.
type Hasher struct {
	factory BackendFactory
	group   singleflight.Group

	mu      sync.RWMutex
	backend Backend
}

// NewHasher creates a Hasher using factory, or the iden3 backend if factory
// is nil. No work is done until the first hash or Init call.
func NewHasher(factory BackendFactory) *Hasher {
	if factory == nil {
		factory = NewIdenBackend
	}
	return &Hasher{factory: factory}
}

// Ready reports whether the backend is initialized.
func (h *Hasher) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.backend != nil
}

// Init waits for the backend to be initialized.
func (h *Hasher) Init(ctx context.Context) error {
	_, err := h.acquire(ctx)
	return err
}

// Hash returns the Poseidon digest of inputs, initializing the backend first
// if needed.
func (h *Hasher) Hash(ctx context.Context, inputs ...*big.Int) (*big.Int, error) {
	b, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return b.Hash(inputs...)
}

func (h *Hasher) acquire(ctx context.Context) (Backend, error) {
	h.mu.RLock()
	b := h.backend
	h.mu.RUnlock()
	if b != nil {
		return b, nil
	}

	// the setup outlives the caller that happened to trigger it
	setupCtx := context.WithoutCancel(ctx)
	ch := h.group.DoChan("init", func() (any, error) {
		h.mu.RLock()
		ready := h.backend
		h.mu.RUnlock()
		if ready != nil {
			return ready, nil
		}
		backend, err := h.factory(setupCtx)
		if err != nil {
			return nil, err
		}
		if backend == nil {
			return nil, fmt.Errorf("factory returned no backend")
		}
		h.mu.Lock()
		h.backend = backend
		h.mu.Unlock()
		log.Debugw("poseidon backend initialized", "backend", fmt.Sprintf("%T", backend))
		return backend, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrHashBackendUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			log.Warnw("poseidon backend initialization failed", "error", res.Err)
			return nil, fmt.Errorf("%w: %w", ErrHashBackendUnavailable, res.Err)
		}
		return res.Val.(Backend), nil
	}
}
