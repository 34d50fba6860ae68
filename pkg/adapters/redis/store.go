package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/ultracard/pkg/document"
	"github.com/aretw0/ultracard/pkg/domain"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "ultracard:"

// Store implements ports.ConfigStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires cards that were not saved within ttl. Zero keeps cards forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the clock used to score and prune the index.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New connects to addr.
func New(addr, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client, e.g. to build a Locker on the same connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(cardID string) string {
	return s.prefix + "card:" + cardID
}

func (s *Store) index() string {
	return s.prefix + "index"
}

// Save writes the card and its index entry atomically.
func (s *Store) Save(ctx context.Context, cardID string, card domain.CardConfig) error {
	data, err := document.EncodeJSON(card)
	if err != nil {
		return fmt.Errorf("failed to encode card: %w", err)
	}

	score := math.Inf(1)
	if s.ttl > 0 {
		score = float64(s.now().Add(s.ttl).Unix())
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.key(cardID), data, s.ttl)
		pipe.ZAdd(ctx, s.index(), backend.Z{Score: score, Member: cardID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save card %s: %w", cardID, err)
	}
	return nil
}

// Load reads a card. A missing or expired key returns domain.ErrCardNotFound.
func (s *Store) Load(ctx context.Context, cardID string) (domain.CardConfig, error) {
	data, err := s.client.Get(ctx, s.key(cardID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.CardConfig{}, domain.ErrCardNotFound
	}
	if err != nil {
		return domain.CardConfig{}, fmt.Errorf("failed to load card %s: %w", cardID, err)
	}
	return document.DecodeJSON(data)
}

// Delete removes the card and its index entry.
func (s *Store) Delete(ctx context.Context, cardID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.key(cardID))
		pipe.ZRem(ctx, s.index(), cardID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}
	return nil
}

// List returns the IDs of live cards, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ttl > 0 {
		cutoff := strconv.FormatInt(s.now().Unix(), 10)
		if err := s.client.ZRemRangeByScore(ctx, s.index(), "-inf", "("+cutoff).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune card index: %w", err)
		}
	}
	ids, err := s.client.ZRange(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return ids, nil
}
