package storage

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

type memoryEntry struct {
	record    SessionRecord
	expiresAt time.Time // zero: never
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, record *SessionRecord, ttl time.Duration) error {
	if record == nil || record.ClientCode == "" {
		return ErrInvalidData("session record needs a client code")
	}
	entry := memoryEntry{record: *record}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[record.ClientCode] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, clientCode string) (*SessionRecord, error) {
	m.mu.RLock()
	entry, ok := m.entries[clientCode]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrDataNotFound, "session %s", clientCode)
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, clientCode)
		m.mu.Unlock()
		return nil, errors.Wrapf(ErrDataNotFound, "session %s expired", clientCode)
	}
	record := entry.record
	return &record, nil
}

func (m *MemoryStore) Delete(_ context.Context, clientCode string) error {
	m.mu.Lock()
	delete(m.entries, clientCode)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
