package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
)

// Provider implements ports.StateProvider over an in-memory entity table.
//
// Templates use Go text/template syntax with a few helpers modelled on the
// home-automation template language:
//
//	states "sensor.x"              the state string, "unknown" when absent
//	is_state "light.a" "on"        state equality
//	state_attr "light.a" "bright"  an attribute value, nil when absent
//	float / int                    numeric coercion, 0 on failure
//
// Live subscriptions are re-rendered after every state change and notified only when
// their output changed.
type Provider struct {
	mu     sync.RWMutex
	states map[string]domain.EntityState
	subs   map[uint64]*subscription
	nextID uint64
	logger *slog.Logger
}

type subscription struct {
	tmpl     *template.Template
	onUpdate ports.TemplateUpdate
	last     string
	failed   bool
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithStates seeds the entity table.
func WithStates(states map[string]domain.EntityState) ProviderOption {
	return func(p *Provider) {
		for id, s := range states {
			p.states[id] = cloneState(s)
		}
	}
}

// NewProvider creates an empty provider.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		states: make(map[string]domain.EntityState),
		subs:   make(map[uint64]*subscription),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// recorded is one entry of a state dump. Dumps written by hand often carry bare
// numbers or booleans as states, so State is rendered to a string after decoding.
type recorded struct {
	State      any            `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// LoadStates seeds a provider from a JSON or YAML mapping of entity ID to state, the
// shape of a recorded state dump. YAML is normalized through JSON so attribute values
// have the same types either way.
func LoadStates(data []byte, opts ...ProviderOption) (*Provider, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse states: %w", err)
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("failed to parse states: expected a mapping of entity IDs, got %T", raw)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize states: %w", err)
	}
	var entries map[string]recorded
	if err := json.Unmarshal(normalized, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse states: %w", err)
	}

	states := make(map[string]domain.EntityState, len(entries))
	for id, e := range entries {
		states[id] = domain.EntityState{State: domain.StringValue(e.State), Attributes: e.Attributes}
	}
	return NewProvider(append([]ProviderOption{WithStates(states)}, opts...)...), nil
}

// State returns a copy of the entity state.
func (p *Provider) State(entityID string) (domain.EntityState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.states[entityID]
	if !ok {
		return domain.EntityState{}, false
	}
	return cloneState(s), true
}

// SetState replaces an entity state and re-renders live subscriptions.
func (p *Provider) SetState(entityID, state string, attrs map[string]any) {
	p.Set(entityID, domain.EntityState{State: state, Attributes: attrs})
}

// Set replaces an entity state and re-renders live subscriptions.
func (p *Provider) Set(entityID string, s domain.EntityState) {
	p.mu.Lock()
	p.states[entityID] = cloneState(s)
	p.mu.Unlock()
	p.refresh()
}

// Remove deletes an entity and re-renders live subscriptions.
func (p *Provider) Remove(entityID string) {
	p.mu.Lock()
	delete(p.states, entityID)
	p.mu.Unlock()
	p.refresh()
}

// RenderTemplate evaluates expr once.
func (p *Provider) RenderTemplate(ctx context.Context, expr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl, err := p.parse(expr)
	if err != nil {
		return "", err
	}
	return p.render(tmpl)
}

// SubscribeTemplate renders expr immediately and again after every state change.
// A template that does not parse is refused.
func (p *Provider) SubscribeTemplate(ctx context.Context, expr string, onUpdate ports.TemplateUpdate) (ports.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpl, err := p.parse(expr)
	if err != nil {
		return nil, err
	}

	sub := &subscription{tmpl: tmpl, onUpdate: onUpdate}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[id] = sub
	p.mu.Unlock()

	raw, rerr := p.render(tmpl)
	p.mu.Lock()
	sub.last, sub.failed = raw, rerr != nil
	p.mu.Unlock()
	onUpdate(raw, rerr)

	var once sync.Once
	return func() error {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
		return nil
	}, nil
}

// Subscriptions returns the number of live template feeds.
func (p *Provider) Subscriptions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

type pending struct {
	onUpdate ports.TemplateUpdate
	raw      string
	err      error
}

func (p *Provider) refresh() {
	p.mu.RLock()
	subs := make([]*subscription, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.RUnlock()

	var out []pending
	for _, s := range subs {
		raw, err := p.render(s.tmpl)
		p.mu.Lock()
		if raw != s.last || (err != nil) != s.failed {
			s.last, s.failed = raw, err != nil
			out = append(out, pending{onUpdate: s.onUpdate, raw: raw, err: err})
		}
		p.mu.Unlock()
	}
	for _, u := range out {
		u.onUpdate(u.raw, u.err)
	}
}

func (p *Provider) parse(expr string) (*template.Template, error) {
	tmpl, err := template.New("expr").Option("missingkey=error").Funcs(p.funcs()).Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}
	return tmpl, nil
}

func (p *Provider) render(tmpl *template.Template) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		p.logger.Debug("template render failed", "err", err)
		return "", fmt.Errorf("template render error: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (p *Provider) funcs() template.FuncMap {
	return template.FuncMap{
		"states": func(id string) string {
			if s, ok := p.State(id); ok {
				return s.State
			}
			return "unknown"
		},
		"is_state": func(id, want string) bool {
			s, ok := p.State(id)
			return ok && s.State == want
		},
		"state_attr": func(id, attr string) any {
			s, ok := p.State(id)
			if !ok {
				return nil
			}
			v, _ := s.Attribute(attr)
			return v
		},
		"float": toFloat,
		"int": func(v any) int {
			return int(toFloat(v))
		},
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case nil:
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(domain.StringValue(v)), 64)
	if err != nil {
		return 0
	}
	return f
}

func cloneState(s domain.EntityState) domain.EntityState {
	out := s
	if s.Attributes != nil {
		out.Attributes = maps.Clone(s.Attributes)
	}
	return out
}
