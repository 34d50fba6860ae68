package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/ports"
	"github.com/aretw0/ultracard/pkg/validator"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// ErrInvalidCard is returned when a card still has structural errors after repair.
// The accompanying validator.Result lists them.
var ErrInvalidCard = errors.New("card has structural errors")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates card access, ensuring safe concurrent edits.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store     ports.ConfigStore
	editor    *layout.Editor
	validator *validator.Validator

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a card manager over store. Every saved card goes through v, and
// operations are applied with editor.
func NewManager(store ports.ConfigStore, editor *layout.Editor, v *validator.Validator, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		editor:    editor,
		validator: v,
		locks:     make(map[string]*lockEntry),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(cardID) after unlocking.
func (m *Manager) acquire(cardID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[cardID]
	if !exists {
		entry = &lockEntry{}
		m.locks[cardID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(cardID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[cardID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, cardID)
	}
}

// Load retrieves a stored card.
func (m *Manager) Load(ctx context.Context, cardID string) (domain.CardConfig, error) {
	var card domain.CardConfig
	err := m.WithLock(ctx, cardID, func(ctx context.Context) error {
		var err error
		card, err = m.store.Load(ctx, cardID)
		return err
	})
	return card, err
}

// LoadOrCreate loads a card, creating and persisting a card with one empty row when
// none exists.
func (m *Manager) LoadOrCreate(ctx context.Context, cardID string) (domain.CardConfig, error) {
	var card domain.CardConfig
	err := m.WithLock(ctx, cardID, func(ctx context.Context) error {
		var err error
		card, err = m.store.Load(ctx, cardID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrCardNotFound) {
			return fmt.Errorf("failed to check card existence: %w", err)
		}

		card = domain.NewCard()
		card.Layout, err = m.editor.AddRow(ctx, card.Layout)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, cardID, card); err != nil {
			return fmt.Errorf("failed to initialize card: %w", err)
		}
		return nil
	})
	return card, err
}

// Save validates card and persists the repaired document. A card with structural
// errors is not stored and ErrInvalidCard is returned with the result.
func (m *Manager) Save(ctx context.Context, cardID string, card domain.CardConfig) (validator.Result, error) {
	var res validator.Result
	err := m.WithLock(ctx, cardID, func(ctx context.Context) error {
		var err error
		res, err = m.commit(ctx, cardID, card)
		return err
	})
	return res, err
}

// Apply loads a card, applies op to its layout, validates and saves it.
func (m *Manager) Apply(ctx context.Context, cardID string, op layout.Operation) (validator.Result, layout.Outcome, error) {
	var (
		res     validator.Result
		outcome layout.Outcome
	)
	err := m.Update(ctx, cardID, func(ctx context.Context, card *domain.CardConfig) error {
		var err error
		card.Layout, outcome, err = m.editor.Apply(ctx, card.Layout, op)
		return err
	}, &res)
	return res, outcome, err
}

// Update runs fn against the stored card under the card lock and saves the result.
// When res is non-nil it receives the validation result.
func (m *Manager) Update(ctx context.Context, cardID string, fn func(context.Context, *domain.CardConfig) error, res *validator.Result) error {
	return m.WithLock(ctx, cardID, func(ctx context.Context) error {
		card, err := m.store.Load(ctx, cardID)
		if err != nil {
			return err
		}
		if err := fn(ctx, &card); err != nil {
			return err
		}
		r, err := m.commit(ctx, cardID, card)
		if res != nil {
			*res = r
		}
		return err
	})
}

func (m *Manager) commit(ctx context.Context, cardID string, card domain.CardConfig) (validator.Result, error) {
	res := m.validator.Validate(ctx, card)
	if !res.Valid {
		m.logger.Debug("card rejected", "card_id", cardID, "errors", len(res.Errors))
		return res, ErrInvalidCard
	}
	if err := m.store.Save(ctx, cardID, res.Config); err != nil {
		return res, fmt.Errorf("failed to save card: %w", err)
	}
	return res, nil
}

// Delete removes the card from the store.
func (m *Manager) Delete(ctx context.Context, cardID string) error {
	return m.WithLock(ctx, cardID, func(ctx context.Context) error {
		return m.store.Delete(ctx, cardID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying config store.
func (m *Manager) Store() ports.ConfigStore {
	return m.store
}

// WithLock executes a function while holding the lock for the card.
func (m *Manager) WithLock(ctx context.Context, cardID string, fn func(context.Context) error) error {
	entry := m.acquire(cardID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(cardID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, cardID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"card_id", cardID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
