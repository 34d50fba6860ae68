package ultracard

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/logic"
	"github.com/aretw0/ultracard/pkg/modules"
	"github.com/aretw0/ultracard/pkg/ports"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/template"
	"github.com/aretw0/ultracard/pkg/validator"
)

// Session owns the services for one card tree. Services are never shared between
// sessions, so two sessions can hold different registries or providers.
type Session struct {
	registry  *registry.Registry
	validator *validator.Validator
	editor    *layout.Editor
	templates *template.Service
	logic     *logic.Service
	provider  ports.StateProvider

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	ids    ids.Generator
	ttl    time.Duration
	now    func() time.Time
}

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRegistry replaces the built-in module registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Session) {
		s.registry = reg
	}
}

// WithStateProvider connects the session to a home-automation backend. Without one the
// session uses an empty in-memory provider.
func WithStateProvider(p ports.StateProvider) Option {
	return func(s *Session) {
		s.provider = p
	}
}

// WithIDGenerator controls how node IDs are minted.
func WithIDGenerator(g ids.Generator) Option {
	return func(s *Session) {
		s.ids = g
	}
}

// WithTemplateTTL sets how long one-shot template results are cached.
func WithTemplateTTL(ttl time.Duration) Option {
	return func(s *Session) {
		s.ttl = ttl
	}
}

// WithClock overrides the wall clock used by time conditions and caches.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New builds a session. Built-in modules are registered unless WithRegistry is given.
func New(opts ...Option) *Session {
	s := &Session{
		logger: logging.NewNop(),
		ids:    ids.Default,
		ttl:    template.DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = registry.New(registry.WithLogger(s.logger), registry.WithIDGenerator(s.ids))
		modules.Register(s.registry)
	}
	if s.provider == nil {
		s.provider = memory.NewProvider(memory.WithLogger(s.logger))
	}

	s.validator = validator.New(s.registry,
		validator.WithIDGenerator(s.ids),
		validator.WithLogger(s.logger),
		validator.WithHooks(s.hooks),
	)
	s.editor = layout.NewEditor(s.registry,
		layout.WithIDGenerator(s.ids),
		layout.WithLogger(s.logger),
		layout.WithHooks(s.hooks),
	)
	s.templates = template.New(s.provider,
		template.WithLogger(s.logger),
		template.WithTTL(s.ttl),
		template.WithClock(s.now),
		template.WithHooks(s.hooks),
	)
	s.logic = logic.New(s.templates,
		logic.WithLogger(s.logger),
		logic.WithClock(s.now),
		logic.WithHooks(s.hooks),
	)
	return s
}

func (s *Session) Registry() *registry.Registry { return s.registry }
func (s *Session) Editor() *layout.Editor { return s.editor }
func (s *Session) Templates() *template.Service { return s.templates }
func (s *Session) Logic() *logic.Service { return s.logic }
func (s *Session) Provider() ports.StateProvider { return s.provider }
func (s *Session) Validator() *validator.Validator { return s.validator }

// Validate repairs cfg and reports what was changed or dropped.
func (s *Session) Validate(ctx context.Context, cfg domain.CardConfig) validator.Result {
	return s.validator.Validate(ctx, cfg)
}

// Visible evaluates one rule set against a fresh snapshot of the provider.
func (s *Session) Visible(ctx context.Context, nodeID string, v domain.Visibility) bool {
	return s.logic.Visible(ctx, nodeID, v, s.logic.Snapshot(ctx, s.provider))
}

// Close tears down every live template feed. Template-mode nodes evaluated after
// Close resolve to hidden.
func (s *Session) Close() {
	s.logic.Close()
	s.templates.UnsubscribeAll()
}
