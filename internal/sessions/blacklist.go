// Package sessions tracks revoked access tokens so logout takes effect before
// a token's natural expiry.
package sessions

import (
	"context"
	"sync"
	"time"
)

// Blacklist records revoked token ids until they would have expired anyway.
type Blacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryBlacklist is a process-local Blacklist. Entries are purged lazily.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.purge(now)
	m.entries[tokenID] = now.Add(ttl)
	return nil
}

func (m *MemoryBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !m.now().Before(exp) {
		delete(m.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (m *MemoryBlacklist) purge(now time.Time) {
	for id, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, id)
		}
	}
}

// Len reports the number of tracked entries, expired or not.
func (m *MemoryBlacklist) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
