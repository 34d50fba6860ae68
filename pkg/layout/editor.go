// Package layout implements the tree mutation engine.
//
// Every operation takes a layout by value and returns a new one; the caller's tree is
// never modified. Identifiers minted for new or duplicated nodes never collide with
// an identifier already present in the tree.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/registry"
)

// Editor applies mutations to layouts.
type Editor struct {
	registry *registry.Registry
	ids      ids.Generator
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures the Editor.
type Option func(*Editor)

// WithIDGenerator configures how new node IDs are minted.
func WithIDGenerator(g ids.Generator) Option {
	return func(e *Editor) {
		e.ids = g
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// NewEditor creates an Editor. The registry builds the modules added by AddModule.
func NewEditor(reg *registry.Registry, opts ...Option) *Editor {
	e := &Editor{
		registry: reg,
		ids:      ids.Default,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// errRejected marks an operation that leaves the tree unchanged without failing.
var errRejected = errors.New("rejected")

// mutate runs fn against a deep copy of l. On error the input is returned untouched;
// a rejection is reported as success with no change.
func (e *Editor) mutate(ctx context.Context, op string, l domain.Layout, fn func(out *domain.Layout, m *minter) error) (domain.Layout, error) {
	out := l.Clone()
	err := fn(&out, newMinter(e.ids, out))
	if errors.Is(err, errRejected) {
		e.logger.Debug("layout operation rejected", "op", op, "reason", err)
		e.emit(ctx, op, nil, false)
		return l, nil
	}
	if err != nil {
		e.emit(ctx, op, nil, false)
		return l, fmt.Errorf("%s: %w", op, err)
	}
	diff := domain.Diff(l, out)
	e.emit(ctx, op, diff, true)
	return out, nil
}

func (e *Editor) emit(ctx context.Context, op string, diff *domain.LayoutDiff, changed bool) {
	if e.hooks.OnMutation == nil {
		return
	}
	e.hooks.OnMutation(ctx, &domain.MutationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventMutation},
		Op:        op,
		Changed:   changed,
		Diff:      diff,
	})
}

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errRejected, fmt.Sprintf(format, args...))
}

func outOfRange(kind string, idx, n int) error {
	return fmt.Errorf("%w: %s %d (have %d)", domain.ErrOutOfRange, kind, idx, n)
}

func rowAt(l *domain.Layout, r int) (*domain.Row, error) {
	if r < 0 || r >= len(l.Rows) {
		return nil, outOfRange("row", r, len(l.Rows))
	}
	return &l.Rows[r], nil
}

func columnAt(l *domain.Layout, r, c int) (*domain.Column, error) {
	row, err := rowAt(l, r)
	if err != nil {
		return nil, err
	}
	if c < 0 || c >= len(row.Columns) {
		return nil, outOfRange("column", c, len(row.Columns))
	}
	return &row.Columns[c], nil
}

func moduleAt(l *domain.Layout, r, c, m int) (*domain.Module, error) {
	col, err := columnAt(l, r, c)
	if err != nil {
		return nil, err
	}
	if m < 0 || m >= len(col.Modules) {
		return nil, outOfRange("module", m, len(col.Modules))
	}
	return &col.Modules[m], nil
}

func layoutAt(l *domain.Layout, r, c, m int) (*domain.Module, error) {
	mod, err := moduleAt(l, r, c, m)
	if err != nil {
		return nil, err
	}
	if !mod.IsLayout() {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrNotLayoutModule, mod.Type, mod.ID)
	}
	return mod, nil
}

func childAt(l *domain.Layout, r, c, m, k int) (*domain.Module, error) {
	parent, err := layoutAt(l, r, c, m)
	if err != nil {
		return nil, err
	}
	if k < 0 || k >= len(parent.Modules) {
		return nil, outOfRange("child", k, len(parent.Modules))
	}
	return &parent.Modules[k], nil
}

// insert places v at idx, clamping idx into [0, len(s)].
func insert[T any](s []T, idx int, v T) []T {
	if idx < 0 {
		idx = 0
	}
	if idx > len(s) {
		idx = len(s)
	}
	s = append(s, v)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func remove[T any](s []T, idx int) []T {
	return append(s[:idx:idx], s[idx+1:]...)
}

// relayout keeps the row's named layout in step with its column count.
func relayout(row *domain.Row) {
	n := len(row.Columns)
	if count, ok := domain.ColumnCount(row.ColumnLayout); ok && count == n {
		return
	}
	if def := domain.DefaultColumnLayout(n); def != "" {
		row.ColumnLayout = def
	}
}
