package tokenstore

import (
	"sync"

	"github.com/civicspot/internal/domain"
)

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string) error {
	if token == "" {
		return domain.WrapRequiredField("token")
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != "", nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
