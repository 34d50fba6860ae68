package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ultracard/pkg/domain"
)

// Store implements ports.ConfigStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.CardConfig
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.CardConfig),
	}
}

// Save persists a deep copy of the card.
func (s *Store) Save(ctx context.Context, cardID string, card domain.CardConfig) error {
	copied := card.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cardID] = copied
	return nil
}

// Load returns a copy so callers cannot mutate the stored card.
func (s *Store) Load(ctx context.Context, cardID string) (domain.CardConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.data[cardID]
	if !ok {
		return domain.CardConfig{}, domain.ErrCardNotFound
	}
	return card.Clone(), nil
}

// Delete removes the card.
func (s *Store) Delete(ctx context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, cardID)
	return nil
}

// List returns stored card IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := make([]string, 0, len(s.data))
	for id := range s.data {
		cards = append(cards, id)
	}
	return cards, nil
}
