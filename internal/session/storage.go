package session

import (
	"context"
	"sync"
)

// Persisted entry names. They match the keys the browser client kept in
// localStorage so a migrated session reads the same.
const (
	KeyToken   = "token"
	KeyUserID  = "userId"
	KeyIsAdmin = "isAdmin"
)

// Storage persists the string-keyed entries of one client. Save replaces the
// whole set in one step; Load of an unknown client returns an empty map.
type Storage interface {
	Load(ctx context.Context, clientID string) (map[string]string, error)
	Save(ctx context.Context, clientID string, entries map[string]string) error
	Delete(ctx context.Context, clientID string) error
}

type MemoryStorage struct {
	mu      sync.RWMutex
	clients map[string]map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{clients: make(map[string]map[string]string)}
}

func (m *MemoryStorage) Load(_ context.Context, clientID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.clients[clientID]))
	for k, v := range m.clients[clientID] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, clientID string, entries map[string]string) error {
	cp := make(map[string]string, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[clientID] = cp
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clientID)
	return nil
}

var _ Storage = (*MemoryStorage)(nil)
