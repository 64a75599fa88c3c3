package storage

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
)

// Election returns the metadata of an election or ErrNotFound.
func (s *Storage) Election(eid types.ElectionID) (*types.Election, error) {
	ck := cacheKey(electionPrefix, electionKey(eid))
	if val, ok := s.cache.Get(ck); ok {
		if e, ok := val.(types.Election); ok {
			return &e, nil
		}
		log.Warnw("cache hit but type assertion failed", "expected", "types.Election", "got", fmt.Sprintf("%T", val))
	}
	e, err := election(s.db, eid)
	if err != nil {
		return nil, err
	}
	s.cache.Add(ck, *e)
	return e, nil
}

// Elections returns every stored election, oldest first.
func (s *Storage) Elections() ([]types.Election, error) {
	list := []types.Election{}
	if err := iterateArtifacts(s.db, electionPrefix, nil, func(e *types.Election) bool {
		list = append(list, *e)
		return true
	}); err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b types.Election) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return list, nil
}

// Candidate returns a candidate of the election or ErrNotFound.
func (s *Storage) Candidate(eid types.ElectionID, id uint64) (*types.Candidate, error) {
	return candidate(s.db, eid, id)
}

// Candidates returns the candidates of the election ordered by ID.
func (s *Storage) Candidates(eid types.ElectionID) ([]types.Candidate, error) {
	return candidates(s.db, eid)
}

// RegistryEntry returns the registry entry of a commitment or ErrNotFound.
func (s *Storage) RegistryEntry(eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	return registryEntry(s.db, eid, commitment)
}

// Counters returns the counters of the election.
func (s *Storage) Counters(eid types.ElectionID) (*Counters, error) {
	return counters(s.db, eid)
}

// Receipt returns the receipt of the accepted vote with sequence number seq
// or ErrNotFound.
func (s *Storage) Receipt(eid types.ElectionID, seq uint64) (*types.Receipt, error) {
	key := receiptKey(eid, seq)
	ck := cacheKey(receiptPrefix, key)
	if val, ok := s.cache.Get(ck); ok {
		if r, ok := val.(types.Receipt); ok {
			return &r, nil
		}
		log.Warnw("cache hit but type assertion failed", "expected", "types.Receipt", "got", fmt.Sprintf("%T", val))
	}
	r := &types.Receipt{}
	if err := getArtifact(s.db, receiptPrefix, key, r); err != nil {
		return nil, err
	}
	s.cache.Add(ck, *r)
	return r, nil
}

// Receipts calls fn for every receipt of the election in sequence order
// until fn returns false.
func (s *Storage) Receipts(eid types.ElectionID, fn func(*types.Receipt) bool) error {
	return iterateArtifacts(s.db, receiptPrefix, electionKey(eid), fn)
}
