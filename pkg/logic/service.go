// Package logic decides node visibility and state-triggered animations.
//
// A decision is a function of a node's rule set and one captured snapshot of external
// state. Render passes capture the snapshot once (see NewPass) so sibling nodes never
// observe different worlds.
package logic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/condition"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
	"github.com/aretw0/ultracard/pkg/template"
)

// Service combines conditions under a display mode. It is safe for concurrent use.
type Service struct {
	evaluator *condition.Evaluator
	templates *template.Service
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	now       func() time.Time

	// feedCtx scopes the lazily created template feeds; they live until Close.
	feedCtx context.Context
	stop    context.CancelFunc

	mu    sync.Mutex
	feeds map[string]string
}

// Option configures the Service.
type Option func(*Service)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithClock injects the time source captured by new passes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithEvaluator replaces the condition evaluator.
func WithEvaluator(e *condition.Evaluator) Option {
	return func(s *Service) {
		s.evaluator = e
	}
}

// New creates a Service. templates may be nil, in which case template conditions and
// template mode are answered by the snapshot alone.
func New(templates *template.Service, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		templates: templates,
		logger:    logging.NewNop(),
		now:       time.Now,
		feedCtx:   ctx,
		stop:      cancel,
		feeds:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = condition.New(condition.WithLogger(s.logger))
	}
	return s
}

// Snapshot captures reader for one pass. Template conditions are evaluated through
// the template service's one-shot path and pinned for the rest of the pass.
func (s *Service) Snapshot(ctx context.Context, reader ports.StateReader) condition.Snapshot {
	var render func(string) bool
	if s.templates != nil {
		render = func(expr string) bool {
			return s.templates.Evaluate(ctx, expr)
		}
	}
	return condition.NewMemo(reader, s.now(), render)
}

// Visible decides whether the node identified by nodeID is shown.
//
// The display mode combines enabled conditions: always is true, every is true when
// all hold (and when there are none), any is true when at least one holds (false when
// there are none). template_mode with a non-empty template overrides the mode; its
// result comes from a live feed keyed by nodeID and is assumed visible until the first
// update arrives.
func (s *Service) Visible(ctx context.Context, nodeID string, v domain.Visibility, snap condition.Snapshot) bool {
	return s.visible(ctx, nodeID, v, snap, true)
}

// visible decides one node. Without live, template mode is answered by the snapshot's
// one-shot evaluation and no feed is opened.
func (s *Service) visible(ctx context.Context, nodeID string, v domain.Visibility, snap condition.Snapshot, live bool) bool {
	mode := string(v.DisplayMode)
	var visible bool
	if v.TemplateMode && v.Template != "" {
		mode = "template"
		if live {
			visible = s.templateVisible(nodeID, v.Template, snap)
		} else {
			visible = snap.Template(v.Template)
		}
	} else {
		visible = s.combine(nodeID, v, snap)
	}
	s.emit(ctx, nodeID, mode, visible)
	return visible
}

func (s *Service) combine(nodeID string, v domain.Visibility, snap condition.Snapshot) bool {
	switch v.DisplayMode {
	case domain.DisplayAlways, "":
		return true
	case domain.DisplayEvery:
		for _, c := range v.DisplayConditions {
			if c.IsEnabled() && !s.evaluator.Evaluate(c, snap) {
				return false
			}
		}
		return true
	case domain.DisplayAny:
		for _, c := range v.DisplayConditions {
			if c.IsEnabled() && s.evaluator.Evaluate(c, snap) {
				return true
			}
		}
		return false
	default:
		s.logger.Warn("unknown display mode", "node_id", nodeID, "display_mode", v.DisplayMode)
		return false
	}
}

func (s *Service) templateVisible(nodeID, expr string, snap condition.Snapshot) bool {
	if s.templates == nil || nodeID == "" {
		return snap.Template(expr)
	}
	s.ensureFeed(nodeID, expr)
	if value, ok := s.templates.Result(nodeID); ok {
		return value
	}
	return true
}

// ensureFeed subscribes nodeID to expr unless an identical feed is already live.
func (s *Service) ensureFeed(nodeID, expr string) {
	s.mu.Lock()
	current, ok := s.feeds[nodeID]
	if ok && current == expr && s.templates.Subscribed(nodeID) {
		s.mu.Unlock()
		return
	}
	s.feeds[nodeID] = expr
	s.mu.Unlock()

	if _, err := s.templates.Subscribe(s.feedCtx, nodeID, expr); err != nil {
		s.logger.Warn("template mode subscription failed", "node_id", nodeID, "err", err)
	}
}

// Retain tears down the template-mode feeds of every node not in keep.
func (s *Service) Retain(keep map[string]struct{}) {
	if s.templates == nil {
		return
	}
	s.mu.Lock()
	var drop []string
	for id := range s.feeds {
		if _, ok := keep[id]; !ok {
			drop = append(drop, id)
			delete(s.feeds, id)
		}
	}
	s.mu.Unlock()

	for _, id := range drop {
		s.templates.Unsubscribe(id)
	}
	if len(drop) > 0 {
		s.logger.Debug("released template feeds", "count", len(drop))
	}
}

// Feeds returns the number of live template-mode feeds.
func (s *Service) Feeds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}

// Close tears down every template feed created for template mode.
func (s *Service) Close() {
	s.stop()
	if s.templates != nil {
		s.templates.UnsubscribeAll()
	}
	s.mu.Lock()
	s.feeds = make(map[string]string)
	s.mu.Unlock()
}

func (s *Service) emit(ctx context.Context, nodeID, mode string, visible bool) {
	if s.hooks.OnEvaluate == nil {
		return
	}
	if mode == "" {
		mode = string(domain.DisplayAlways)
	}
	s.hooks.OnEvaluate(ctx, &domain.EvaluationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventEvaluate},
		NodeID:    nodeID,
		Mode:      mode,
		Visible:   visible,
	})
}
