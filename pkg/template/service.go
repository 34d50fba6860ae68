// Package template maintains live template feeds against a state provider and caches
// their boolean results.
//
// Each feed is keyed by the node that owns it. Subscribing again under the same key
// replaces the feed: the old subscription's channel is closed and any late callback
// from the old feed is dropped by a generation check. Events are emitted only when the
// coerced boolean changes.
package template

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/condition"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
)

// DefaultTTL bounds the staleness of one-shot evaluations.
const DefaultTTL = 1000 * time.Millisecond

// DefaultBuffer is the per-subscription event queue size.
const DefaultBuffer = 8

// Event reports a changed template result.
type Event struct {
	Key   string
	Value bool
	Raw   string
	Err   error
}

// Service is the template subscription service. It is safe for concurrent use.
type Service struct {
	provider ports.StateProvider
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	ttl      time.Duration
	now      func() time.Time
	buffer   int

	mu    sync.Mutex
	gen   uint64
	feeds map[string]*feed
	cache map[string]cached
}

type feed struct {
	gen    uint64
	sub    *Subscription
	unsub  ports.Unsubscribe
	raw    string
	value  bool
	has    bool
	closed bool
	stop   func() bool
}

type cached struct {
	value   bool
	expires time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger configures a logger for backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTTL overrides the one-shot evaluation cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock injects the time source used for TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithBuffer sets the event queue size of new subscriptions.
func WithBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// New creates a Service backed by provider.
func New(provider ports.StateProvider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		logger:   logging.NewNop(),
		ttl:      DefaultTTL,
		now:      time.Now,
		buffer:   DefaultBuffer,
		feeds:    make(map[string]*feed),
		cache:    make(map[string]cached),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscription is a live feed for one key. Events are delivered on a buffered channel;
// when the consumer falls behind, the oldest queued event is discarded.
type Subscription struct {
	key    string
	gen    uint64
	svc    *Service
	events chan Event
}

// Key returns the key the feed was registered under.
func (s *Subscription) Key() string { return s.key }

// Events returns the change stream. It is closed when the subscription is cancelled or
// replaced.
func (s *Subscription) Events() <-chan Event { return s.events }

// Cancel tears down the feed. Cancelling a replaced subscription is a no-op.
func (s *Subscription) Cancel() {
	s.svc.cancel(s.key, s.gen)
}

// Subscribe establishes a live feed for expr under key, replacing any existing feed
// for that key. The feed is cancelled when ctx is done.
//
// When the provider refuses the subscription the key resolves to false and the error
// is returned.
func (s *Service) Subscribe(ctx context.Context, key, expr string) (*Subscription, error) {
	s.mu.Lock()
	old := s.detach(key)
	s.gen++
	gen := s.gen
	sub := &Subscription{key: key, gen: gen, svc: s, events: make(chan Event, s.buffer)}
	f := &feed{gen: gen, sub: sub}
	s.feeds[key] = f
	s.mu.Unlock()

	s.teardown(key, old)

	unsub, err := s.provider.SubscribeTemplate(ctx, expr, func(raw string, err error) {
		s.deliver(key, gen, raw, err)
	})
	if err != nil {
		s.logger.Warn("template subscription failed", "key", key, "err", err)
		s.mu.Lock()
		if cur := s.feeds[key]; cur == f {
			f.has, f.value = true, false
		}
		s.mu.Unlock()
		s.emit(&domain.TemplateEvent{Key: key, IsError: true})
		return sub, err
	}

	s.mu.Lock()
	if f.closed {
		s.mu.Unlock()
		s.release(key, unsub)
		return sub, nil
	}
	f.unsub = unsub
	f.stop = context.AfterFunc(ctx, sub.Cancel)
	s.mu.Unlock()
	return sub, nil
}

// Result returns the last boolean observed for key. ok is false until the first
// update arrives.
func (s *Service) Result(key string) (value bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, found := s.feeds[key]
	if !found || !f.has {
		return false, false
	}
	return f.value, true
}

// Cached returns the number of one-shot results currently held.
func (s *Service) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Subscribed reports whether a feed is registered under key.
func (s *Service) Subscribed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.feeds[key]
	return ok
}

// Unsubscribe tears down the feed registered under key. A missing key is a no-op.
func (s *Service) Unsubscribe(key string) {
	s.mu.Lock()
	f := s.detach(key)
	s.mu.Unlock()
	s.teardown(key, f)
}

// UnsubscribeAll tears down every feed. Teardown errors are logged and ignored.
func (s *Service) UnsubscribeAll() {
	s.mu.Lock()
	feeds := s.feeds
	s.feeds = make(map[string]*feed)
	for _, f := range feeds {
		s.close(f)
	}
	s.mu.Unlock()

	for key, f := range feeds {
		s.teardown(key, f)
	}
}

// Evaluate renders expr once and coerces the output. Results, failures included, are
// cached for the TTL so repeated evaluations within the window do not query the
// backend again. Failures resolve to false. Expired entries are dropped whenever the
// backend is queried, so the cache holds only expressions seen within one TTL.
func (s *Service) Evaluate(ctx context.Context, expr string) bool {
	now := s.now()
	s.mu.Lock()
	if c, ok := s.cache[expr]; ok && now.Before(c.expires) {
		s.mu.Unlock()
		s.emit(&domain.TemplateEvent{Result: c.value, Cached: true})
		return c.value
	}
	s.mu.Unlock()

	value, failed := false, false
	raw, err := s.provider.RenderTemplate(ctx, expr)
	if err != nil {
		failed = true
		s.logger.Warn("template evaluation failed", "template", expr, "err", err)
	} else {
		value = condition.Truthy(raw, s.logger)
	}

	s.mu.Lock()
	for k, c := range s.cache {
		if !now.Before(c.expires) {
			delete(s.cache, k)
		}
	}
	s.cache[expr] = cached{value: value, expires: now.Add(s.ttl)}
	s.mu.Unlock()

	s.emit(&domain.TemplateEvent{Result: value, IsError: failed})
	return value
}

func (s *Service) deliver(key string, gen uint64, raw string, err error) {
	value := false
	if err != nil {
		s.logger.Warn("template update failed", "key", key, "err", err)
	} else {
		value = condition.Truthy(raw, s.logger)
	}

	s.mu.Lock()
	f, ok := s.feeds[key]
	if !ok || f.gen != gen {
		s.mu.Unlock()
		return
	}
	f.raw = raw
	changed := !f.has || f.value != value
	f.has, f.value = true, value
	if changed {
		push(f.sub.events, Event{Key: key, Value: value, Raw: raw, Err: err})
	}
	s.mu.Unlock()

	if changed {
		s.emit(&domain.TemplateEvent{Key: key, Result: value, IsError: err != nil})
	}
}

// push enqueues e, discarding the oldest event when the queue is full. The caller
// holds s.mu, which is the only sender.
func push(ch chan Event, e Event) {
	for {
		select {
		case ch <- e:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Service) cancel(key string, gen uint64) {
	s.mu.Lock()
	f, ok := s.feeds[key]
	if !ok || f.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.feeds, key)
	s.close(f)
	s.mu.Unlock()
	s.teardown(key, f)
}

// detach removes the feed for key and closes its channel. The caller holds s.mu and
// must pass the result to teardown once it has released the lock.
func (s *Service) detach(key string) *feed {
	f, ok := s.feeds[key]
	if !ok {
		return nil
	}
	delete(s.feeds, key)
	s.close(f)
	return f
}

func (s *Service) teardown(key string, f *feed) {
	if f == nil {
		return
	}
	if f.stop != nil {
		f.stop()
	}
	s.release(key, f.unsub)
}

func (s *Service) close(f *feed) {
	if f.closed {
		return
	}
	f.closed = true
	close(f.sub.events)
}

func (s *Service) release(key string, unsub ports.Unsubscribe) {
	if unsub == nil {
		return
	}
	if err := unsub(); err != nil {
		s.logger.Debug("template unsubscribe failed", "key", key, "err", err)
	}
}

func (s *Service) emit(e *domain.TemplateEvent) {
	if s.hooks.OnTemplate == nil {
		return
	}
	e.Timestamp = time.Now()
	e.Type = domain.EventTemplate
	s.hooks.OnTemplate(context.Background(), e)
}
