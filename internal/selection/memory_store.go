package selection

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/usercontext"
)

// MemoryStore keeps selections in process memory. Used in tests and as a
// stand-in when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[snowflake.ID]Selection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[snowflake.ID]Selection)}
}

func (s *MemoryStore) Save(ctx context.Context, sel Selection) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[userID] = sel
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (*Selection, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, ErrInvalidUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel, ok := s.byID[userID]
	if !ok {
		return nil, nil
	}
	return &sel, nil
}
