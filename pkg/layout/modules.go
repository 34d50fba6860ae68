package layout

import (
	"context"
	"fmt"

	"github.com/aretw0/ultracard/pkg/domain"
)

// Inserted describes a module created by AddModule or AddChildModule.
type Inserted struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`

	// OpenSettings is true for leaf modules: hosts open their settings right after
	// insertion. Layout modules are never opened.
	OpenSettings bool `json:"open_settings"`
}

// AddModule appends a default module of type t to a column.
func (e *Editor) AddModule(ctx context.Context, l domain.Layout, row, col int, t domain.ModuleType) (domain.Layout, Inserted, error) {
	var ins Inserted
	out, err := e.mutate(ctx, "add_module", l, func(out *domain.Layout, m *minter) error {
		c, err := columnAt(out, row, col)
		if err != nil {
			return err
		}
		mod, err := e.create(t, m)
		if err != nil {
			return err
		}
		c.Modules = append(c.Modules, mod)
		ins = Inserted{
			ID:           mod.ID,
			Position:     ModuleAt(row, col, len(c.Modules)-1),
			OpenSettings: !mod.IsLayout(),
		}
		return nil
	})
	return out, ins, err
}

// AddChildModule appends a default module of type t to the children of a layout
// module. Layout types cannot be added as children.
func (e *Editor) AddChildModule(ctx context.Context, l domain.Layout, row, col, parent int, t domain.ModuleType) (domain.Layout, Inserted, error) {
	var ins Inserted
	out, err := e.mutate(ctx, "add_child_module", l, func(out *domain.Layout, m *minter) error {
		p, err := layoutAt(out, row, col, parent)
		if err != nil {
			return err
		}
		if domain.IsLayoutType(t) {
			return fmt.Errorf("%w: cannot add %s to %s %q", domain.ErrNestedLayout, t, p.Type, p.ID)
		}
		mod, err := e.create(t, m)
		if err != nil {
			return err
		}
		p.Modules = append(p.Modules, mod)
		ins = Inserted{
			ID:           mod.ID,
			Position:     ChildAt(row, col, parent, len(p.Modules)-1),
			OpenSettings: true,
		}
		return nil
	})
	return out, ins, err
}

func (e *Editor) create(t domain.ModuleType, m *minter) (domain.Module, error) {
	mod, ok := e.registry.CreateDefault(t, m.mint(string(t)))
	if !ok {
		return domain.Module{}, fmt.Errorf("%w: %q", domain.ErrUnknownModuleType, t)
	}
	return mod, nil
}

// DuplicateModule inserts a copy of a module right after it. The copy and, for layout
// modules, every child get fresh IDs.
func (e *Editor) DuplicateModule(ctx context.Context, l domain.Layout, row, col, mod int) (domain.Layout, error) {
	return e.mutate(ctx, "duplicate_module", l, func(out *domain.Layout, m *minter) error {
		src, err := moduleAt(out, row, col, mod)
		if err != nil {
			return err
		}
		dup := m.module(src.Clone())
		c := &out.Rows[row].Columns[col]
		c.Modules = insert(c.Modules, mod+1, dup)
		return nil
	})
}

// DuplicateChild inserts a copy of a layout child right after it.
func (e *Editor) DuplicateChild(ctx context.Context, l domain.Layout, row, col, parent, child int) (domain.Layout, error) {
	return e.mutate(ctx, "duplicate_child", l, func(out *domain.Layout, m *minter) error {
		src, err := childAt(out, row, col, parent, child)
		if err != nil {
			return err
		}
		dup := m.module(src.Clone())
		p := &out.Rows[row].Columns[col].Modules[parent]
		p.Modules = insert(p.Modules, child+1, dup)
		return nil
	})
}

// DeleteModule removes a module, and its children if it is a layout module.
func (e *Editor) DeleteModule(ctx context.Context, l domain.Layout, row, col, mod int) (domain.Layout, error) {
	return e.mutate(ctx, "delete_module", l, func(out *domain.Layout, _ *minter) error {
		if _, err := moduleAt(out, row, col, mod); err != nil {
			return err
		}
		c := &out.Rows[row].Columns[col]
		c.Modules = remove(c.Modules, mod)
		return nil
	})
}

// DeleteChild removes one child of a layout module.
func (e *Editor) DeleteChild(ctx context.Context, l domain.Layout, row, col, parent, child int) (domain.Layout, error) {
	return e.mutate(ctx, "delete_child", l, func(out *domain.Layout, _ *minter) error {
		if _, err := childAt(out, row, col, parent, child); err != nil {
			return err
		}
		p := &out.Rows[row].Columns[col].Modules[parent]
		p.Modules = remove(p.Modules, child)
		return nil
	})
}

// UpdateModule applies fn to the module with the given ID, wherever it is. The
// module's ID, type and children are owned by the tree and cannot be changed by fn.
func (e *Editor) UpdateModule(ctx context.Context, l domain.Layout, id string, fn func(*domain.Module)) (domain.Layout, error) {
	return e.mutate(ctx, "update_module", l, func(out *domain.Layout, _ *minter) error {
		var target *domain.Module
		out.Walk(func(_ string, _ *domain.Row, _ *domain.Column, m *domain.Module) bool {
			if m != nil && m.ID == id {
				target = m
				return false
			}
			return true
		})
		if target == nil {
			return fmt.Errorf("%w: %q", domain.ErrModuleNotFound, id)
		}
		keepID, keepType, keepChildren := target.ID, target.Type, target.Modules
		fn(target)
		target.ID, target.Type, target.Modules = keepID, keepType, keepChildren
		return nil
	})
}

// Locate returns the position of the module with the given ID: a module position for
// column members, a layout-child position for layout children.
func Locate(l domain.Layout, id string) (Position, bool) {
	for ri, r := range l.Rows {
		for ci, c := range r.Columns {
			for mi, m := range c.Modules {
				if m.ID == id {
					return ModuleAt(ri, ci, mi), true
				}
				for ki, k := range m.Modules {
					if k.ID == id {
						return ChildAt(ri, ci, mi, ki), true
					}
				}
			}
		}
	}
	return Position{}, false
}
