package voter

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

func TestVoterCircuit(t *testing.T) {
	c := qt.New(t)
	identifier := big.NewInt(12345)
	commitment, err := poseidon.Hash([]*big.Int{identifier})
	c.Assert(err, qt.IsNil)
	other := big.NewInt(54321)

	assert := test.NewAssert(t)
	opts := []test.TestingOption{test.WithCurves(Curve), test.WithBackends(backend.GROTH16)}

	// matching identifier, flag set
	assert.SolvingSucceeded(&VoterCircuit{}, Assignment(identifier, commitment, true), opts...)
	// wrong identifier, flag cleared: a valid witness
	assert.SolvingSucceeded(&VoterCircuit{}, Assignment(other, commitment, false), opts...)
	// the flag must reflect the digest comparison
	assert.SolvingFailed(&VoterCircuit{}, Assignment(other, commitment, true), opts...)
	assert.SolvingFailed(&VoterCircuit{}, Assignment(identifier, commitment, false), opts...)
}

func TestStoreAndLoadKeys(t *testing.T) {
	c := qt.New(t)
	keys, err := Setup()
	c.Assert(err, qt.IsNil)

	dir := t.TempDir()
	manifest, err := keys.Store(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(manifest.Circuit, qt.Equals, CircuitName)
	c.Assert(manifest.Names(), qt.HasLen, 5)

	artifacts, err := manifest.ArtifactList("", dir)
	c.Assert(err, qt.IsNil)
	for _, a := range artifacts {
		c.Assert(a.Verify(), qt.IsNil)
	}

	loaded, err := LoadKeys(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.CS.GetNbConstraints(), qt.Equals, keys.CS.GetNbConstraints())

	cvk, err := loaded.CircomVerificationKey()
	c.Assert(err, qt.IsNil)
	c.Assert(cvk.NPublic, qt.Equals, NPublicInputs)
	c.Assert(cvk.IC, qt.HasLen, NPublicInputs+1)
}
