// Package registry maps module type identifiers to their implementations.
//
// The registry is populated once at startup and read-mostly afterwards. The core only
// reaches module-specific behavior through the ModuleHandler interface; it never reads
// module-specific fields itself.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
)

// Registry manages the available module implementations.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.ModuleType]ModuleHandler
	logger   *slog.Logger
	ids      ids.Generator
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures the logger used for overwrite and lookup warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithIDGenerator configures how CreateDefault mints identifiers.
func WithIDGenerator(g ids.Generator) Option {
	return func(r *Registry) {
		r.ids = g
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[domain.ModuleType]ModuleHandler),
		logger:   logging.NewNop(),
		ids:      ids.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a handler under its metadata type.
// If a handler with the same type exists, it is overwritten and a warning is logged.
func (r *Registry) Register(h ModuleHandler) {
	t := h.Metadata().Type
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		r.logger.Warn("module type re-registered, overwriting", "module_type", t)
	}
	r.handlers[t] = h
}

// Get looks up a handler.
func (r *Registry) Get(t domain.ModuleType) (ModuleHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// Has reports whether t is registered.
func (r *Registry) Has(t domain.ModuleType) bool {
	_, ok := r.Get(t)
	return ok
}

// NewID mints an identifier for a module of type t.
func (r *Registry) NewID(t domain.ModuleType) string {
	return r.ids.New(string(t))
}

// CreateDefault builds a fully populated module of type t. An empty id is replaced by
// a freshly minted one. Unknown types are logged and reported with ok=false.
func (r *Registry) CreateDefault(t domain.ModuleType, id string) (m domain.Module, ok bool) {
	h, found := r.Get(t)
	if !found {
		r.logger.Warn("cannot create default for unknown module type", "module_type", t)
		return domain.Module{}, false
	}
	if id == "" {
		id = r.NewID(t)
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("module handler panicked in CreateDefault", "module_type", t, "panic", p)
			m, ok = domain.Module{}, false
		}
	}()
	m = h.CreateDefault(id)
	m.ID = id
	m.Type = t
	if m.IsLayout() && m.Modules == nil {
		m.Modules = []domain.Module{}
	}
	return m, true
}

// Validate runs the base id and type checks followed by the handler's own checks.
// It never panics: a panicking handler is reported as an error.
func (r *Registry) Validate(m domain.Module) (res ValidationResult) {
	if m.ID == "" {
		res.Errors = append(res.Errors, "module id is required")
	}
	if m.Type == "" {
		res.Errors = append(res.Errors, "module type is required")
		return res
	}
	h, ok := r.Get(m.Type)
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("unknown module type %q", m.Type))
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("module handler panicked in Validate", "module_type", m.Type, "module_id", m.ID, "panic", p)
			res.Errors = append(res.Errors, fmt.Sprintf("validator for %q failed", m.Type))
			res.Valid = false
		}
	}()
	own := h.Validate(m)
	res.Errors = append(res.Errors, own.Errors...)
	if !own.Valid && len(own.Errors) == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("module %q is invalid", m.ID))
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// RenderPreview renders the module through its handler. ok is false for unknown types.
func (r *Registry) RenderPreview(m domain.Module, rc RenderContext) (p Preview, ok bool) {
	h, found := r.Get(m.Type)
	if !found {
		return Preview{}, false
	}
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("module handler panicked in RenderPreview", "module_type", m.Type, "module_id", m.ID, "panic", v)
			p, ok = Preview{}, false
		}
	}()
	return h.RenderPreview(m, rc), true
}

// RenderSettings returns the settings form of the module. ok is false for unknown types.
func (r *Registry) RenderSettings(m domain.Module, rc RenderContext, onChange func(domain.Module)) (s Settings, ok bool) {
	h, found := r.Get(m.Type)
	if !found {
		return Settings{}, false
	}
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("module handler panicked in RenderSettings", "module_type", m.Type, "module_id", m.ID, "panic", v)
			s, ok = Settings{}, false
		}
	}()
	return h.RenderSettings(m, rc, onChange), true
}

// List returns the metadata of every registered type, ordered by type.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	out := make([]Metadata, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h.Metadata())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Search matches term case-insensitively against type, title, description, category
// and tags. An empty term matches everything.
func (r *Registry) Search(term string) []Metadata {
	term = strings.ToLower(strings.TrimSpace(term))
	all := r.List()
	if term == "" {
		return all
	}
	var out []Metadata
	for _, md := range all {
		if md.matches(term) {
			out = append(out, md)
		}
	}
	return out
}
