package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ultracard/pkg/domain"
)

var (
	// ErrUnknownOperation is returned by Apply for an unrecognized op name.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidOperation is returned by Apply when an operation lacks a field its op
	// requires.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Operation names accepted by Apply.
const (
	OpAddRow             = "add_row"
	OpDeleteRow          = "delete_row"
	OpDuplicateRow       = "duplicate_row"
	OpAddColumn          = "add_column"
	OpAddColumnAfter     = "add_column_after"
	OpDuplicateColumn    = "duplicate_column"
	OpDeleteColumn       = "delete_column"
	OpChangeColumnLayout = "change_column_layout"
	OpAddModule          = "add_module"
	OpAddChildModule     = "add_child_module"
	OpDuplicateModule    = "duplicate_module"
	OpDuplicateChild     = "duplicate_child"
	OpDeleteModule       = "delete_module"
	OpDeleteChild        = "delete_child"
	OpUpdateModule       = "update_module"
	OpMove               = "move"
)

// Operations lists every operation name.
func Operations() []string {
	return []string{
		OpAddRow, OpDeleteRow, OpDuplicateRow,
		OpAddColumn, OpAddColumnAfter, OpDuplicateColumn, OpDeleteColumn, OpChangeColumnLayout,
		OpAddModule, OpAddChildModule, OpDuplicateModule, OpDuplicateChild, OpDeleteModule, OpDeleteChild,
		OpUpdateModule, OpMove,
	}
}

// Operation is a serializable layout mutation, as sent by the HTTP and MCP adapters.
// Only the fields used by Op are read. update_module merges Fields into the
// type-specific settings of ModuleID; modeled keys such as "id" or "type" are ignored.
type Operation struct {
	Op           string            `json:"op"`
	Row          int               `json:"row,omitempty"`
	Column       int               `json:"column,omitempty"`
	Module       int               `json:"module,omitempty"`
	Child        int               `json:"child,omitempty"`
	Type         domain.ModuleType `json:"type,omitempty"`
	ColumnLayout string            `json:"column_layout,omitempty"`
	ModuleID     string            `json:"module_id,omitempty"`
	Fields       map[string]any    `json:"fields,omitempty"`
	Source       *Position         `json:"source,omitempty"`
	Target       *Position         `json:"target,omitempty"`
}

// Outcome is what Apply produced besides the new layout.
type Outcome struct {
	// Inserted is set by add_module and add_child_module.
	Inserted *Inserted `json:"inserted,omitempty"`

	// Diff lists the nodes the operation touched; nil when nothing changed.
	Diff *domain.LayoutDiff `json:"diff,omitempty"`
}

// Apply dispatches op to the matching Editor method.
func (e *Editor) Apply(ctx context.Context, l domain.Layout, op Operation) (domain.Layout, Outcome, error) {
	var (
		out domain.Layout
		res Outcome
		err error
	)
	switch op.Op {
	case OpAddRow:
		out, err = e.AddRow(ctx, l)
	case OpDeleteRow:
		out, err = e.DeleteRow(ctx, l, op.Row)
	case OpDuplicateRow:
		out, err = e.DuplicateRow(ctx, l, op.Row)
	case OpAddColumn:
		out, err = e.AddColumn(ctx, l, op.Row)
	case OpAddColumnAfter:
		out, err = e.AddColumnAfter(ctx, l, op.Row, op.Column)
	case OpDuplicateColumn:
		out, err = e.DuplicateColumn(ctx, l, op.Row, op.Column)
	case OpDeleteColumn:
		out, err = e.DeleteColumn(ctx, l, op.Row, op.Column)
	case OpChangeColumnLayout:
		out, err = e.ChangeColumnLayout(ctx, l, op.Row, op.ColumnLayout)
	case OpAddModule:
		var ins Inserted
		out, ins, err = e.AddModule(ctx, l, op.Row, op.Column, op.Type)
		if err == nil {
			res.Inserted = &ins
		}
	case OpAddChildModule:
		var ins Inserted
		out, ins, err = e.AddChildModule(ctx, l, op.Row, op.Column, op.Module, op.Type)
		if err == nil {
			res.Inserted = &ins
		}
	case OpDuplicateModule:
		out, err = e.DuplicateModule(ctx, l, op.Row, op.Column, op.Module)
	case OpDuplicateChild:
		out, err = e.DuplicateChild(ctx, l, op.Row, op.Column, op.Module, op.Child)
	case OpDeleteModule:
		out, err = e.DeleteModule(ctx, l, op.Row, op.Column, op.Module)
	case OpDeleteChild:
		out, err = e.DeleteChild(ctx, l, op.Row, op.Column, op.Module, op.Child)
	case OpUpdateModule:
		if op.ModuleID == "" {
			return l, res, fmt.Errorf("%w: update_module needs a module_id", ErrInvalidOperation)
		}
		out, err = e.UpdateModule(ctx, l, op.ModuleID, func(m *domain.Module) {
			for k, v := range op.Fields {
				if domain.IsModuleKey(k) {
					continue
				}
				if m.Fields == nil {
					m.Fields = make(map[string]any, len(op.Fields))
				}
				m.Fields[k] = domain.CloneValue(v)
			}
		})
	case OpMove:
		if op.Source == nil || op.Target == nil {
			return l, res, fmt.Errorf("%w: move needs a source and a target", ErrInvalidOperation)
		}
		out, err = e.Move(ctx, l, *op.Source, *op.Target)
	default:
		return l, res, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
	if err == nil {
		res.Diff = domain.Diff(l, out)
	}
	return out, res, err
}
