package poseidon

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

func TestIdenBackend(t *testing.T) {
	c := qt.New(t)
	h := NewHasher(nil)
	c.Assert(h.Ready(), qt.IsFalse)

	got, err := h.Hash(context.Background(), big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	c.Assert(got.String(), qt.Equals,
		"7853200120776062878684798364095072458815029376092732009249414926327459813530")
	c.Assert(h.Ready(), qt.IsTrue)
}

func TestMultiPoseidon(t *testing.T) {
	c := qt.New(t)
	_, err := MultiPoseidon()
	c.Assert(err, qt.IsNotNil)

	inputs := make([]*big.Int, 20)
	for i := range inputs {
		inputs[i] = big.NewInt(int64(i + 1))
	}
	first, err := poseidon.Hash(inputs[:16])
	c.Assert(err, qt.IsNil)
	second, err := poseidon.Hash(inputs[16:])
	c.Assert(err, qt.IsNil)
	want, err := poseidon.Hash([]*big.Int{first, second})
	c.Assert(err, qt.IsNil)

	got, err := MultiPoseidon(inputs...)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Cmp(want), qt.Equals, 0)
}

func TestSingleFlightInit(t *testing.T) {
	c := qt.New(t)
	var calls atomic.Int32
	release := make(chan struct{})
	h := NewHasher(func(ctx context.Context) (Backend, error) {
		calls.Add(1)
		<-release
		return NewIdenBackend(ctx)
	})

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Hash(context.Background(), big.NewInt(7))
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		c.Assert(err, qt.IsNil)
	}
	c.Assert(calls.Load(), qt.Equals, int32(1))
}

func TestInitFailureIsRetried(t *testing.T) {
	c := qt.New(t)
	var fail atomic.Bool
	fail.Store(true)
	h := NewHasher(func(ctx context.Context) (Backend, error) {
		if fail.Load() {
			return nil, errors.New("constants not loaded")
		}
		return NewIdenBackend(ctx)
	})

	_, err := h.Hash(context.Background(), big.NewInt(1))
	c.Assert(errors.Is(err, ErrHashBackendUnavailable), qt.IsTrue)
	c.Assert(h.Ready(), qt.IsFalse)

	fail.Store(false)
	c.Assert(h.Init(context.Background()), qt.IsNil)
	c.Assert(h.Ready(), qt.IsTrue)
}

func TestInitCanceledWait(t *testing.T) {
	c := qt.New(t)
	release := make(chan struct{})
	defer close(release)
	h := NewHasher(func(ctx context.Context) (Backend, error) {
		<-release
		return NewIdenBackend(ctx)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.Init(ctx)
	c.Assert(errors.Is(err, ErrHashBackendUnavailable), qt.IsTrue)
	c.Assert(errors.Is(err, context.DeadlineExceeded), qt.IsTrue)
}
