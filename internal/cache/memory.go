package cache

import (
	"container/list"
	"context"
	"sync"
)

type memoryItem struct {
	key   string
	entry Entry
}

// Memory is a thread-safe in-memory LRU store. It backs the "memory"
// driver for embedded and test use; production deployments use the SQL or
// Redis stores.
type Memory struct {
	mu        sync.Mutex
	capacity  int
	items     map[string]*list.Element
	evictList *list.List
}

// NewMemory creates an in-memory store holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Memory{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

func memoryKey(userID, endpoint, inputHash string) string {
	return userID + "\x00" + endpoint + "\x00" + inputHash
}

// Get returns the stored entry or (nil, nil) on a miss. Stale entries are
// returned as-is; the caller checks freshness.
func (m *Memory) Get(_ context.Context, userID, endpoint, inputHash string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[memoryKey(userID, endpoint, inputHash)]
	if !ok {
		return nil, nil
	}
	m.evictList.MoveToFront(elem)
	entry := elem.Value.(*memoryItem).entry
	return &entry, nil
}

// Put upserts an entry, evicting the least recently used one at capacity.
func (m *Memory) Put(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(entry.UserID, entry.Endpoint, entry.InputHash)
	if elem, ok := m.items[key]; ok {
		m.evictList.MoveToFront(elem)
		elem.Value.(*memoryItem).entry = entry
		return nil
	}

	if m.evictList.Len() >= m.capacity {
		if oldest := m.evictList.Back(); oldest != nil {
			m.evictList.Remove(oldest)
			delete(m.items, oldest.Value.(*memoryItem).key)
		}
	}
	m.items[key] = m.evictList.PushFront(&memoryItem{key: key, entry: entry})
	return nil
}

// Len returns the number of entries currently stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictList.Len()
}
