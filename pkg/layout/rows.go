package layout

import (
	"context"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
)

func (m *minter) emptyColumn() domain.Column {
	return domain.Column{ID: m.mint(ids.PrefixColumn), Modules: []domain.Module{}}
}

// AddRow appends a single-column row.
func (e *Editor) AddRow(ctx context.Context, l domain.Layout) (domain.Layout, error) {
	return e.mutate(ctx, "add_row", l, func(out *domain.Layout, m *minter) error {
		out.Rows = append(out.Rows, domain.Row{
			ID:           m.mint(ids.PrefixRow),
			ColumnLayout: domain.SingleColumn,
			Columns:      []domain.Column{m.emptyColumn()},
		})
		return nil
	})
}

// DeleteRow removes a row. The last remaining row cannot be deleted.
func (e *Editor) DeleteRow(ctx context.Context, l domain.Layout, row int) (domain.Layout, error) {
	return e.mutate(ctx, "delete_row", l, func(out *domain.Layout, _ *minter) error {
		if _, err := rowAt(out, row); err != nil {
			return err
		}
		if len(out.Rows) == 1 {
			return domain.ErrLastRow
		}
		out.Rows = remove(out.Rows, row)
		return nil
	})
}

// DuplicateRow inserts a copy of a row right after it. Every node of the copy gets a
// fresh ID.
func (e *Editor) DuplicateRow(ctx context.Context, l domain.Layout, row int) (domain.Layout, error) {
	return e.mutate(ctx, "duplicate_row", l, func(out *domain.Layout, m *minter) error {
		src, err := rowAt(out, row)
		if err != nil {
			return err
		}
		dup := m.row(src.Clone())
		out.Rows = insert(out.Rows, row+1, dup)
		return nil
	})
}
