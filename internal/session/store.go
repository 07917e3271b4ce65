package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// Store persists the token of each session.
type Store interface {
	Get(ctx context.Context, sessionID string) (models.TokenRecord, error)
	Put(ctx context.Context, sessionID string, rec models.TokenRecord) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a [Store] backed by a map. Records are copied in and out so callers never share slices.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.TokenRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.TokenRecord)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (models.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return models.TokenRecord{}, fmt.Errorf("%w: session %s", shared.ErrTokenMissing, sessionID)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, sessionID string, rec models.TokenRecord) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[sessionID] = rec.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, sessionID)
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
