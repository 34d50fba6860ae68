// Package validator repairs and validates externally supplied card documents.
//
// The pass is depth-first (layout, rows, columns, modules, layout children). Missing
// identifiers and arrays are synthesized with a warning. Modules without a type or with
// an unregistered type are dropped with an error while their siblings continue. Every
// surviving module has its per-type defaults merged under the supplied fields. A final
// card-wide pass renames duplicate identifiers, keeping the first occurrence.
//
// Validating the corrected output again yields the same document. The only warnings
// that repeat are CodeInvalidModule: a module failing its own validation is kept as
// supplied, so every pass reports it again.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/registry"
)

// Result is the outcome of a validation pass. Valid is false only when Errors is
// non-empty; warnings never block.
type Result struct {
	Valid    bool                `json:"valid"`
	Errors   []domain.Diagnostic `json:"errors"`
	Warnings []domain.Diagnostic `json:"warnings"`
	Config   domain.CardConfig   `json:"config"`
}

// Diagnostics returns errors followed by warnings.
func (r Result) Diagnostics() []domain.Diagnostic {
	out := make([]domain.Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// Validator runs the repair pass against a module registry.
type Validator struct {
	registry *registry.Registry
	ids      ids.Generator
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures the Validator.
type Option func(*Validator)

// WithIDGenerator configures how missing row, column and condition IDs are minted.
// Module IDs are minted by the registry.
func WithIDGenerator(g ids.Generator) Option {
	return func(v *Validator) {
		v.ids = g
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(v *Validator) {
		v.hooks = hooks
	}
}

// New creates a Validator.
func New(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{
		registry: reg,
		ids:      ids.Default,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// pass accumulates diagnostics for one Validate call.
type pass struct {
	*Validator
	errors   []domain.Diagnostic
	warnings []domain.Diagnostic
}

func (p *pass) fail(code, path, format string, args ...any) {
	d := domain.Diagnostic{Severity: domain.SeverityError, Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
	p.errors = append(p.errors, d)
	p.logger.Debug("validation error", "code", code, "path", path, "message", d.Message)
}

func (p *pass) warn(code, path, format string, args ...any) {
	d := domain.Diagnostic{Severity: domain.SeverityWarning, Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
	p.warnings = append(p.warnings, d)
	p.logger.Debug("validation warning", "code", code, "path", path, "message", d.Message)
}

// Validate repairs a copy of cfg. The caller's document is never modified.
func (v *Validator) Validate(ctx context.Context, cfg domain.CardConfig) Result {
	p := &pass{Validator: v}
	out := cfg.Clone()

	if out.Type != domain.CardType {
		if out.Type == "" {
			p.warn(domain.CodeCardType, "type", "card type missing, set to %q", domain.CardType)
		} else {
			p.warn(domain.CodeCardType, "type", "card type %q replaced by %q", out.Type, domain.CardType)
		}
		out.Type = domain.CardType
	}

	if out.Layout.Rows == nil {
		p.warn(domain.CodeMissingRows, "layout.rows", "rows missing, initialized empty")
		out.Layout.Rows = []domain.Row{}
	}
	for i := range out.Layout.Rows {
		p.row(domain.RowPath(i), &out.Layout.Rows[i])
	}

	p.dedupe(&out.Layout)

	res := Result{
		Valid:    len(p.errors) == 0,
		Errors:   p.errors,
		Warnings: p.warnings,
		Config:   out,
	}
	if res.Errors == nil {
		res.Errors = []domain.Diagnostic{}
	}
	if res.Warnings == nil {
		res.Warnings = []domain.Diagnostic{}
	}
	v.emit(ctx, res)
	return res
}

func (p *pass) row(path string, r *domain.Row) {
	if r.ID == "" {
		r.ID = p.ids.New(ids.PrefixRow)
		p.warn(domain.CodeMissingID, path, "row id missing, assigned %q", r.ID)
	}
	p.conditions(path, r.DisplayConditions)

	if r.Columns == nil {
		p.warn(domain.CodeMissingColumns, path+".columns", "columns missing, initialized")
		r.Columns = []domain.Column{}
	}
	if len(r.Columns) == 0 {
		r.Columns = append(r.Columns, domain.Column{ID: p.ids.New(ids.PrefixColumn), Modules: []domain.Module{}})
		p.warn(domain.CodeEmptyRow, path, "row has no columns, added %q", r.Columns[0].ID)
	}
	for i := range r.Columns {
		p.column(fmt.Sprintf("%s.columns[%d]", path, i), &r.Columns[i])
	}
	p.columnLayout(path, r)
}

// columnLayout keeps the named layout consistent with the column count. An absent name
// is filled silently; a known name for the wrong count or an unknown name is replaced.
func (p *pass) columnLayout(path string, r *domain.Row) {
	n := len(r.Columns)
	def := domain.DefaultColumnLayout(n)
	if def == "" {
		return
	}
	if r.ColumnLayout == "" {
		r.ColumnLayout = def
		return
	}
	if count, ok := domain.ColumnCount(r.ColumnLayout); ok && count == n && domain.IsKnownColumnLayout(r.ColumnLayout) {
		return
	}
	p.warn(domain.CodeColumnLayout, path+".column_layout",
		"column layout %q does not describe %d columns, set to %q", r.ColumnLayout, n, def)
	r.ColumnLayout = def
}

func (p *pass) column(path string, c *domain.Column) {
	if c.ID == "" {
		c.ID = p.ids.New(ids.PrefixColumn)
		p.warn(domain.CodeMissingID, path, "column id missing, assigned %q", c.ID)
	}
	p.conditions(path, c.DisplayConditions)

	if c.Modules == nil {
		p.warn(domain.CodeMissingModules, path+".modules", "modules missing, initialized empty")
		c.Modules = []domain.Module{}
	}
	c.Modules = p.modules(path, c.Modules, false)
}

// queued is a module awaiting validation with its location in the input document.
type queued struct {
	module domain.Module
	path   string
}

// modules validates a module sequence and returns the survivors. Children found on a
// leaf module are hoisted to follow it in the same sequence; their diagnostics keep
// pointing at where they were found.
func (p *pass) modules(parent string, in []domain.Module, inLayout bool) []domain.Module {
	out := make([]domain.Module, 0, len(in))
	queue := make([]queued, 0, len(in))
	for i, m := range in {
		queue = append(queue, queued{module: m, path: domain.ChildPath(parent, i)})
	}
	for len(queue) > 0 {
		m, path := queue[0].module, queue[0].path
		queue = queue[1:]

		if m.Type == "" {
			p.fail(domain.CodeMissingType, path, "module %q has no type, dropped", m.ID)
			continue
		}
		if !p.registry.Has(m.Type) {
			p.fail(domain.CodeUnknownType, path, "module %q has unknown type %q, dropped", m.ID, m.Type)
			continue
		}
		if inLayout && m.IsLayout() {
			p.fail(domain.CodeNestedLayout, path, "layout module %q cannot be nested in a layout module, dropped", m.ID)
			continue
		}
		if m.ID == "" {
			m.ID = p.registry.NewID(m.Type)
			p.warn(domain.CodeMissingID, path, "module id missing, assigned %q", m.ID)
		}
		p.conditions(path, m.DisplayConditions)

		if m.IsLayout() {
			if m.Modules == nil {
				m.Modules = []domain.Module{}
			}
			m.Modules = p.modules(path, m.Modules, true)
		} else if len(m.Modules) > 0 {
			p.warn(domain.CodeChildrenOnLeaf, path, "%s module %q cannot hold modules, %d moved after it", m.Type, m.ID, len(m.Modules))
			hoisted := make([]queued, 0, len(m.Modules)+len(queue))
			for k, child := range m.Modules {
				hoisted = append(hoisted, queued{module: child, path: domain.ChildPath(path, k)})
			}
			queue = append(hoisted, queue...)
			m.Modules = nil
		}

		if res := p.registry.Validate(m); !res.Valid {
			p.warn(domain.CodeInvalidModule, path, "module %q: %s", m.ID, strings.Join(res.Errors, "; "))
		} else {
			m = p.withDefaults(m)
		}
		out = append(out, m)
	}
	return out
}

// withDefaults merges the type defaults under the module's own fields.
func (p *pass) withDefaults(m domain.Module) domain.Module {
	def, ok := p.registry.CreateDefault(m.Type, m.ID)
	if !ok {
		return m
	}
	m.Fields = Merge(def.Fields, m.Fields)
	if m.Name == "" {
		m.Name = def.Name
	}
	return m
}

func (p *pass) conditions(path string, conds []domain.Condition) {
	for i := range conds {
		if conds[i].ID == "" {
			conds[i].ID = p.ids.New(ids.PrefixCondition)
			p.warn(domain.CodeMissingID, fmt.Sprintf("%s.display_conditions[%d]", path, i),
				"condition id missing, assigned %q", conds[i].ID)
		}
	}
}

func (v *Validator) emit(ctx context.Context, res Result) {
	if v.hooks.OnValidate == nil {
		return
	}
	v.hooks.OnValidate(ctx, &domain.ValidationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventValidate},
		Valid:     res.Valid,
		Errors:    len(res.Errors),
		Warnings:  len(res.Warnings),
	})
}
