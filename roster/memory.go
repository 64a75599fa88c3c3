package roster

import (
	"context"
	"sync"

	"github.com/vocdoni/zkvote-node/types"
)

// MemoryRoster is a roster held in memory, for tests and deployments
// without an external directory.
type MemoryRoster struct {
	mu     sync.RWMutex
	voters map[string]Voter
}

// NewMemory returns an empty MemoryRoster.
func NewMemory() *MemoryRoster {
	return &MemoryRoster{voters: make(map[string]Voter)}
}

func (m *MemoryRoster) FindVoterByCommitment(_ context.Context, commitment *types.BigInt) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.voters[commitment.String()]
	return ok, nil
}

func (m *MemoryRoster) AddVoter(_ context.Context, commitment *types.BigInt, meta Voter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := newVoter(commitment, meta)
	if _, ok := m.voters[v.IDHash]; ok {
		return ErrVoterExists
	}
	m.voters[v.IDHash] = v
	return nil
}

func (m *MemoryRoster) Close(context.Context) error {
	return nil
}
