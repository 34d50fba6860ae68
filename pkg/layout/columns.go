package layout

import (
	"context"
	"fmt"

	"github.com/aretw0/ultracard/pkg/domain"
)

// AddColumn appends an empty column to a row.
func (e *Editor) AddColumn(ctx context.Context, l domain.Layout, row int) (domain.Layout, error) {
	return e.mutate(ctx, "add_column", l, func(out *domain.Layout, m *minter) error {
		r, err := rowAt(out, row)
		if err != nil {
			return err
		}
		return addColumn(r, len(r.Columns), m.emptyColumn())
	})
}

// AddColumnAfter inserts an empty column right after the given one.
func (e *Editor) AddColumnAfter(ctx context.Context, l domain.Layout, row, col int) (domain.Layout, error) {
	return e.mutate(ctx, "add_column_after", l, func(out *domain.Layout, m *minter) error {
		if _, err := columnAt(out, row, col); err != nil {
			return err
		}
		return addColumn(&out.Rows[row], col+1, m.emptyColumn())
	})
}

// DuplicateColumn inserts a copy of a column, with fresh IDs, right after it.
func (e *Editor) DuplicateColumn(ctx context.Context, l domain.Layout, row, col int) (domain.Layout, error) {
	return e.mutate(ctx, "duplicate_column", l, func(out *domain.Layout, m *minter) error {
		src, err := columnAt(out, row, col)
		if err != nil {
			return err
		}
		dup := m.column(src.Clone())
		return addColumn(&out.Rows[row], col+1, dup)
	})
}

// DeleteColumn removes a column and its modules. Deleting the only column leaves an
// empty one in its place so the row keeps at least one column.
func (e *Editor) DeleteColumn(ctx context.Context, l domain.Layout, row, col int) (domain.Layout, error) {
	return e.mutate(ctx, "delete_column", l, func(out *domain.Layout, m *minter) error {
		if _, err := columnAt(out, row, col); err != nil {
			return err
		}
		r := &out.Rows[row]
		r.Columns = remove(r.Columns, col)
		if len(r.Columns) == 0 {
			r.Columns = []domain.Column{m.emptyColumn()}
		}
		relayout(r)
		return nil
	})
}

// ChangeColumnLayout retargets a row to a named layout. Growing appends empty
// columns. Shrinking salvages the modules of the removed columns and deals them
// round-robin, in order, across the surviving columns. An unknown name keeps the
// current column count and leaves the row unchanged.
func (e *Editor) ChangeColumnLayout(ctx context.Context, l domain.Layout, row int, name string) (domain.Layout, error) {
	return e.mutate(ctx, "change_column_layout", l, func(out *domain.Layout, m *minter) error {
		r, err := rowAt(out, row)
		if err != nil {
			return err
		}
		n, ok := domain.ColumnCount(name)
		if !ok {
			return reject("unknown column layout %q", name)
		}
		for len(r.Columns) < n {
			r.Columns = append(r.Columns, m.emptyColumn())
		}
		if len(r.Columns) > n {
			var salvaged []domain.Module
			for _, c := range r.Columns[n:] {
				salvaged = append(salvaged, c.Modules...)
			}
			r.Columns = r.Columns[:n]
			for i, mod := range salvaged {
				c := &r.Columns[i%n]
				c.Modules = append(c.Modules, mod)
			}
		}
		r.ColumnLayout = name
		return nil
	})
}

func addColumn(r *domain.Row, at int, c domain.Column) error {
	if len(r.Columns) >= domain.MaxColumns {
		return fmt.Errorf("%w: row %q has %d columns", domain.ErrColumnLimit, r.ID, len(r.Columns))
	}
	r.Columns = insert(r.Columns, at, c)
	relayout(r)
	return nil
}
