package ports

import (
	"context"

	"github.com/aretw0/ultracard/pkg/domain"
)

// ConfigStore defines the interface for persisting card documents.
type ConfigStore interface {
	// Save persists the card under the given ID, replacing any previous version.
	Save(ctx context.Context, cardID string, card domain.CardConfig) error

	// Load retrieves a card.
	// Returns domain.ErrCardNotFound if the card does not exist.
	Load(ctx context.Context, cardID string) (domain.CardConfig, error)

	// Delete removes a card. Deleting a missing card is not an error.
	Delete(ctx context.Context, cardID string) error

	// List returns the IDs of all stored cards.
	List(ctx context.Context) ([]string, error)
}
