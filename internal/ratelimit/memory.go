package ratelimit

import (
	"context"
	"sync"
)

// MemoryStore keeps bucket state in process memory. It backs the "memory"
// driver and the limiter's tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]State)}
}

func stateKey(userID, endpoint string) string {
	return userID + "\x00" + endpoint
}

// Load returns the stored state or (nil, nil) when absent.
func (m *MemoryStore) Load(_ context.Context, userID, endpoint string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[stateKey(userID, endpoint)]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// Save upserts the state row.
func (m *MemoryStore) Save(_ context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[stateKey(state.UserID, state.Endpoint)] = state
	return nil
}
