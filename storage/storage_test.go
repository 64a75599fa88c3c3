package storage

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-node/db/metadb"
	"github.com/vocdoni/zkvote-node/types"
)

func newTestStorage(t *testing.T) *Storage {
	return New(metadb.NewTest(t))
}

func TestElections(t *testing.T) {
	c := qt.New(t)
	st := newTestStorage(t)

	_, err := st.Election(types.DefaultElectionID)
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

	now := time.Now().UTC().Truncate(time.Second)
	second := &types.Election{ID: types.NewElectionID(), Name: "second", CreatedAt: now.Add(time.Minute)}
	first := &types.Election{ID: types.NewElectionID(), Name: "first", CreatedAt: now}

	tx := st.WriteTx()
	c.Assert(tx.NewElection(second), qt.IsNil)
	c.Assert(tx.NewElection(first), qt.IsNil)
	c.Assert(errors.Is(tx.NewElection(first), ErrKeyAlreadyExists), qt.IsTrue)
	c.Assert(tx.Commit(), qt.IsNil)

	e, err := st.Election(first.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(e.Name, qt.Equals, "first")
	c.Assert(e.CreatedAt.Equal(now), qt.IsTrue)

	// cached copies are not shared
	e.Name = "changed"
	e, err = st.Election(first.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(e.Name, qt.Equals, "first")

	list, err := st.Elections()
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 2)
	c.Assert(list[0].ID, qt.Equals, first.ID)
	c.Assert(list[1].ID, qt.Equals, second.ID)
}

func TestCandidatesAreScopedAndOrdered(t *testing.T) {
	c := qt.New(t)
	st := newTestStorage(t)
	eid := types.NewElectionID()
	other := types.NewElectionID()

	tx := st.WriteTx()
	// IDs above 255 check the big endian key order
	for _, id := range []uint64{300, 2, 0, 1} {
		c.Assert(tx.SetCandidate(eid, &types.Candidate{ID: id, Name: "c"}), qt.IsNil)
	}
	c.Assert(tx.SetCandidate(other, &types.Candidate{ID: 0, Name: "other"}), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	list, err := st.Candidates(eid)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 4)
	for i, want := range []uint64{0, 1, 2, 300} {
		c.Assert(list[i].ID, qt.Equals, want)
	}

	cand, err := st.Candidate(other, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(cand.Name, qt.Equals, "other")
	_, err = st.Candidate(other, 1)
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

	empty, err := st.Candidates(types.NewElectionID())
	c.Assert(err, qt.IsNil)
	c.Assert(empty, qt.HasLen, 0)
}

func TestRegistryAndCountersAtomic(t *testing.T) {
	c := qt.New(t)
	st := newTestStorage(t)
	eid := types.DefaultElectionID
	commitment := types.NewInt(12345)

	tx := st.WriteTx()
	c.Assert(tx.SetRegistryEntry(eid, &types.RegistryEntry{Commitment: commitment, Registered: true}), qt.IsNil)
	c.Assert(tx.SetCounters(eid, &Counters{Registered: 1}), qt.IsNil)
	// pending writes are visible inside the transaction only
	entry, err := tx.RegistryEntry(eid, commitment)
	c.Assert(err, qt.IsNil)
	c.Assert(entry.Eligible(), qt.IsTrue)
	_, err = st.RegistryEntry(eid, commitment)
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)
	tx.Discard()

	counters, err := st.Counters(eid)
	c.Assert(err, qt.IsNil)
	c.Assert(*counters, qt.Equals, Counters{})

	tx = st.WriteTx()
	c.Assert(tx.SetRegistryEntry(eid, &types.RegistryEntry{Commitment: commitment, Registered: true}), qt.IsNil)
	c.Assert(tx.SetCounters(eid, &Counters{Registered: 1}), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	entry, err = st.RegistryEntry(eid, commitment)
	c.Assert(err, qt.IsNil)
	c.Assert(entry.Commitment.String(), qt.Equals, "12345")
	counters, err = st.Counters(eid)
	c.Assert(err, qt.IsNil)
	c.Assert(counters.Registered, qt.Equals, uint64(1))

	_, err = st.RegistryEntry(eid, nil)
	c.Assert(err, qt.IsNotNil)
}

func TestReceipts(t *testing.T) {
	c := qt.New(t)
	st := newTestStorage(t)
	eid := types.NewElectionID()

	tx := st.WriteTx()
	for seq := uint64(1); seq <= 3; seq++ {
		c.Assert(tx.AddReceipt(&types.Receipt{
			ElectionID: eid,
			Sequence:   seq,
			Commitment: types.NewInt(int(seq)),
			Status:     types.VoteStatusAccepted,
		}), qt.IsNil)
	}
	dup := &types.Receipt{ElectionID: eid, Sequence: 2}
	c.Assert(errors.Is(tx.AddReceipt(dup), ErrKeyAlreadyExists), qt.IsTrue)
	c.Assert(tx.Commit(), qt.IsNil)

	r, err := st.Receipt(eid, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(r.Commitment.String(), qt.Equals, "2")
	c.Assert(r.Status, qt.Equals, types.VoteStatusAccepted)
	_, err = st.Receipt(eid, 4)
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

	var seqs []uint64
	c.Assert(st.Receipts(eid, func(r *types.Receipt) bool {
		seqs = append(seqs, r.Sequence)
		return true
	}), qt.IsNil)
	c.Assert(seqs, qt.DeepEquals, []uint64{1, 2, 3})
}

func TestEncodeArtifactDeterministic(t *testing.T) {
	c := qt.New(t)
	a := &Counters{Candidates: 2, Votes: 5, Registered: 9, Spent: 5, Marked: 1}
	first, err := EncodeArtifact(a)
	c.Assert(err, qt.IsNil)
	second, err := EncodeArtifact(&Counters{Marked: 1, Spent: 5, Registered: 9, Votes: 5, Candidates: 2})
	c.Assert(err, qt.IsNil)
	c.Assert(first, qt.DeepEquals, second)

	var back Counters
	c.Assert(DecodeArtifact(first, &back), qt.IsNil)
	c.Assert(back, qt.Equals, *a)
	c.Assert(DecodeArtifact([]byte{0xff}, &back), qt.IsNotNil)
}
