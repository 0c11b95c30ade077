package clientstate

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local development
// without Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID, field string) (string, error) {
	if err := validateKey(sessionID, field); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fields, ok := s.data[sessionID]; ok {
		if val, ok := fields[field]; ok {
			return val, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStore) Set(_ context.Context, sessionID, field, value string) error {
	if err := validateKey(sessionID, field); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sessionID] == nil {
		s.data[sessionID] = make(map[string]string)
	}
	s.data[sessionID][field] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	for _, field := range fields {
		delete(stored, field)
	}
	if len(stored) == 0 {
		delete(s.data, sessionID)
	}
	return nil
}
