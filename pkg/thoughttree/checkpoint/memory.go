package checkpoint

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory substrate for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]storedCheckpoint // searchID -> phase -> checkpoint
	ledger map[string]map[string][]byte           // searchID -> callID -> result
	closed bool
}

// storedCheckpoint holds checkpoint data with metadata for List().
type storedCheckpoint struct {
	data      []byte
	sequence  int
	timestamp time.Time
}

// NewMemoryStore creates a new in-memory substrate.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]map[string]storedCheckpoint),
		ledger: make(map[string]map[string][]byte),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(searchID, phase string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.data[searchID] == nil {
		m.data[searchID] = make(map[string]storedCheckpoint)
	}

	// Determine sequence number
	seq := 1
	for _, cp := range m.data[searchID] {
		if cp.sequence >= seq {
			seq = cp.sequence + 1
		}
	}

	// Copy data to avoid retaining the caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[searchID][phase] = storedCheckpoint{
		data:      stored,
		sequence:  seq,
		timestamp: time.Now().UTC(),
	}

	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(searchID, phase string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	search, ok := m.data[searchID]
	if !ok {
		return nil, ErrNotFound
	}

	cp, ok := search[phase]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(cp.data))
	copy(result, cp.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List(searchID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	search, ok := m.data[searchID]
	if !ok {
		return nil, nil
	}

	infos := make([]Info, 0, len(search))
	for phase, cp := range search {
		infos = append(infos, Info{
			SearchID:  searchID,
			Phase:     phase,
			Sequence:  cp.sequence,
			Timestamp: cp.timestamp,
			Size:      int64(len(cp.data)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})

	return infos, nil
}

// DeleteSearch implements Store.
func (m *MemoryStore) DeleteSearch(searchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, searchID)
	delete(m.ledger, searchID)
	return nil
}

// Commit implements Ledger. First write wins.
func (m *MemoryStore) Commit(searchID, callID string, result []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.ledger[searchID] == nil {
		m.ledger[searchID] = make(map[string][]byte)
	}
	if _, exists := m.ledger[searchID][callID]; exists {
		return nil
	}

	stored := make([]byte, len(result))
	copy(stored, result)
	m.ledger[searchID][callID] = stored
	return nil
}

// Lookup implements Ledger.
func (m *MemoryStore) Lookup(searchID, callID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	entries, ok := m.ledger[searchID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := entries[callID]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Committed implements Ledger.
func (m *MemoryStore) Committed(searchID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	return len(m.ledger[searchID]), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	m.ledger = nil
	return nil
}

// Len returns the total number of checkpoints across all searches.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, search := range m.data {
		count += len(search)
	}
	return count
}
