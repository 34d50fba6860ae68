package ports

import (
	"context"

	"github.com/aretw0/ultracard/pkg/domain"
)

// StateReader is the synchronous half of a state provider.
type StateReader interface {
	// State returns the current state of an entity, or false when it is unknown.
	State(entityID string) (domain.EntityState, bool)
}

// Unsubscribe tears down a live template feed.
type Unsubscribe func() error

// TemplateUpdate receives each new rendering of a subscribed template. A non-nil err
// reports a backend or template failure for that update.
type TemplateUpdate func(raw string, err error)

// StateProvider is the narrow interface the logic and template services depend on.
type StateProvider interface {
	StateReader

	// RenderTemplate evaluates an expression once.
	RenderTemplate(ctx context.Context, expr string) (string, error)

	// SubscribeTemplate starts a live feed that calls onUpdate with every new
	// rendering of expr until the returned Unsubscribe is called.
	SubscribeTemplate(ctx context.Context, expr string, onUpdate TemplateUpdate) (Unsubscribe, error)
}
