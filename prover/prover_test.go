package prover

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/circuits/voter/votertest"
	"github.com/vocdoni/zkvote-node/identity"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
	"github.com/vocdoni/zkvote-node/verifier"
)

type recordingProver struct {
	calls      int
	identifier string
	inputs     Inputs
	proof      *circomgnark.CircomProof
	signals    []string
	err        error
}

func (r *recordingProver) Prove(_ context.Context, identifier string, inputs Inputs) (*circomgnark.CircomProof, []string, error) {
	r.calls++
	r.identifier = identifier
	r.inputs = inputs
	return r.proof, r.signals, r.err
}

var fixedProof = &circomgnark.CircomProof{
	PiA: []string{"1", "2", "1"},
	PiB: [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
	PiC: []string{"7", "8", "1"},
}

func TestToProofTupleOrder(t *testing.T) {
	c := qt.New(t)
	tuple, err := ToProofTuple(fixedProof, []string{"1", "0042"})
	c.Assert(err, qt.IsNil)
	c.Assert(tuple.A, qt.DeepEquals, []string{"1", "2"})
	c.Assert(tuple.B, qt.DeepEquals, [][]string{{"4", "3"}, {"6", "5"}})
	c.Assert(tuple.C, qt.DeepEquals, []string{"7", "8"})
	c.Assert(tuple.PublicSignals, qt.DeepEquals, []string{"1", "42"})
	// the input proof is left untouched
	c.Assert(fixedProof.PiB[0], qt.DeepEquals, []string{"3", "4"})

	_, err = ToProofTuple(fixedProof, []string{"1"})
	c.Assert(err, qt.IsNotNil)
	_, err = ToProofTuple(&circomgnark.CircomProof{PiA: []string{"1"}}, []string{"1", "2"})
	c.Assert(err, qt.IsNotNil)
	_, err = ToProofTuple(fixedProof, []string{"1", "-2"})
	c.Assert(err, qt.IsNotNil)
}

func TestAssembleFillsInputs(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	p := &recordingProver{proof: fixedProof, signals: []string{"1", "2"}}
	a := NewAssembler(p, nil)

	_, err := a.AssembleVoteProof(ctx, "  12345 ", Inputs{})
	c.Assert(err, qt.IsNil)
	c.Assert(p.calls, qt.Equals, 1)
	c.Assert(p.identifier, qt.Equals, "12345")
	expected, err := identity.New(nil).Commit(ctx, "12345")
	c.Assert(err, qt.IsNil)
	c.Assert(p.inputs[SignalCommitment], qt.Equals, expected.String())
	c.Assert(p.inputs[SignalEligible], qt.Equals, "1")

	// caller provided inputs are kept and not mutated
	in := Inputs{SignalCommitment: "99"}
	_, err = a.AssembleVoteProof(ctx, "voter-a", in)
	c.Assert(err, qt.IsNil)
	c.Assert(p.inputs[SignalCommitment], qt.Equals, "99")
	c.Assert(in, qt.HasLen, 1)
	id, err := identity.Canonicalize("voter-a")
	c.Assert(err, qt.IsNil)
	c.Assert(p.identifier, qt.Equals, id.String())
}

func TestAssembleErrors(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	p := &recordingProver{err: errors.New("witness failed")}
	a := NewAssembler(p, nil)

	_, err := a.AssembleVoteProof(ctx, "   ", nil)
	c.Assert(errors.Is(err, identity.ErrInvalidInput), qt.IsTrue)
	c.Assert(p.calls, qt.Equals, 0)

	_, err = a.AssembleVoteProof(ctx, "12345", nil)
	c.Assert(errors.Is(err, ErrProofGeneration), qt.IsTrue)
	c.Assert(p.calls, qt.Equals, 1)

	// malformed prover output is a generation failure too
	p.err = nil
	p.proof = &circomgnark.CircomProof{}
	_, err = a.AssembleVoteProof(ctx, "12345", nil)
	c.Assert(errors.Is(err, ErrProofGeneration), qt.IsTrue)
	c.Assert(p.calls, qt.Equals, 2)
}

func TestGnarkProverCompleteness(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	keys := votertest.Keys(c)
	gp, err := NewGnarkProver(keys)
	c.Assert(err, qt.IsNil)
	v, err := verifier.New(votertest.VerificationKey(c))
	c.Assert(err, qt.IsNil)

	a := NewAssembler(gp, nil)
	tuple, err := a.AssembleVoteProof(ctx, "12345", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(tuple.PublicSignals[0], qt.Equals, "1")
	c.Assert(tuple.PublicSignals[1], qt.Equals, votertest.Commitment(c, big.NewInt(12345)).String())
	ok, err := v.VerifyTuple(tuple)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// claiming eligibility for a commitment of another identifier cannot
	// be proven
	other := votertest.Commitment(c, big.NewInt(54321)).String()
	_, err = a.AssembleVoteProof(ctx, "12345", Inputs{SignalCommitment: other})
	c.Assert(errors.Is(err, ErrProofGeneration), qt.IsTrue)

	// but the honest answer can
	tuple, err = a.AssembleVoteProof(ctx, "12345", Inputs{SignalCommitment: other, SignalEligible: "0"})
	c.Assert(err, qt.IsNil)
	ok, err = v.VerifyTuple(tuple)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(tuple.PublicSignals[0], qt.Equals, "0")
}

func TestRemoteProver(t *testing.T) {
	c := qt.New(t)
	var got RemoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if got.Identifier == "1" {
			http.Error(w, "unsatisfied constraint", http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(&RemoteResponse{
			Proof:         fixedProof,
			PublicSignals: []string{"1", got.CircuitInputs[SignalCommitment]},
		})
	}))
	defer srv.Close()

	rp, err := NewRemoteProver(srv.URL, 0)
	c.Assert(err, qt.IsNil)
	a := NewAssembler(rp, nil)

	tuple, err := a.AssembleVoteProof(context.Background(), "12345", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Identifier, qt.Equals, "12345")
	c.Assert(got.CircuitInputs[SignalEligible], qt.Equals, "1")
	c.Assert(tuple.B, qt.DeepEquals, [][]string{{"4", "3"}, {"6", "5"}})
	c.Assert(tuple.PublicSignals[1], qt.Equals, got.CircuitInputs[SignalCommitment])

	_, err = a.AssembleVoteProof(context.Background(), "1", nil)
	c.Assert(errors.Is(err, ErrProofGeneration), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `.*status 422.*unsatisfied constraint.*`)

	_, err = NewRemoteProver("", 0)
	c.Assert(err, qt.IsNotNil)
}

func TestRapidsnarkProverArtifacts(t *testing.T) {
	c := qt.New(t)
	_, err := NewRapidsnarkProver(nil, []byte{1})
	c.Assert(err, qt.IsNotNil)
	_, err = NewRapidsnarkProver([]byte("not a wasm module"), []byte{1})
	c.Assert(err, qt.IsNotNil)
	_, err = LoadRapidsnarkProver(c.TempDir()+"/missing.wasm", c.TempDir()+"/missing.zkey")
	c.Assert(err, qt.IsNotNil)

	raw, err := circomInputs("7", Inputs{SignalCommitment: "8"})
	c.Assert(err, qt.IsNil)
	c.Assert(string(raw), qt.Equals, `{"commitment":"8","identifier":"7"}`)
}
