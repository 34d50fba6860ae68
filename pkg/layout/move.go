package layout

import (
	"context"
	"fmt"

	"github.com/aretw0/ultracard/pkg/domain"
)

// Kind tags one side of a move.
type Kind string

const (
	KindRow         Kind = "row"
	KindColumn      Kind = "column"
	KindModule      Kind = "module"
	KindLayout      Kind = "layout"
	KindLayoutChild Kind = "layout-child"
)

// Position addresses a node, or a drop slot, in a layout. Only the indices meaningful
// for Kind are read: Row for rows; Row and Column for columns; Row, Column and Module
// for modules and layout modules; all four for layout children.
type Position struct {
	Kind   Kind `json:"kind"`
	Row    int  `json:"row"`
	Column int  `json:"column,omitempty"`
	Module int  `json:"module,omitempty"`
	Child  int  `json:"child,omitempty"`
}

// RowAt, ColumnAt, ModuleAt, LayoutAt and ChildAt build positions.
func RowAt(row int) Position { return Position{Kind: KindRow, Row: row} }

func ColumnAt(row, col int) Position { return Position{Kind: KindColumn, Row: row, Column: col} }

func ModuleAt(row, col, m int) Position {
	return Position{Kind: KindModule, Row: row, Column: col, Module: m}
}

func LayoutAt(row, col, m int) Position {
	return Position{Kind: KindLayout, Row: row, Column: col, Module: m}
}

func ChildAt(row, col, m, child int) Position {
	return Position{Kind: KindLayoutChild, Row: row, Column: col, Module: m, Child: child}
}

func (p Position) String() string {
	switch p.Kind {
	case KindRow:
		return fmt.Sprintf("row[%d]", p.Row)
	case KindColumn:
		return fmt.Sprintf("row[%d].column[%d]", p.Row, p.Column)
	case KindModule, KindLayout:
		return fmt.Sprintf("%s[%d.%d.%d]", p.Kind, p.Row, p.Column, p.Module)
	default:
		return fmt.Sprintf("%s[%d.%d.%d.%d]", p.Kind, p.Row, p.Column, p.Module, p.Child)
	}
}

// compatible is the fixed table of legal (source kind, target kind) pairs.
var compatible = map[Kind]map[Kind]bool{
	KindModule:      {KindModule: true, KindColumn: true, KindLayout: true, KindLayoutChild: true},
	KindLayoutChild: {KindModule: true, KindColumn: true, KindLayout: true, KindLayoutChild: true},
	KindColumn:      {KindColumn: true, KindRow: true},
	KindRow:         {KindRow: true},
}

// CanMove reports whether the compatibility table allows moving a src-kind node onto
// a dst-kind target.
func CanMove(src, dst Kind) bool {
	return compatible[src][dst]
}

// tombstone holds the source slot while the moved node is inserted, so indices in the
// target position keep referring to the tree as it was before the move. IDs never
// contain NUL.
const tombstone = "\x00moving"

// Move relocates the node at src to dst.
//
// Pairs absent from the compatibility table, moving a layout module into a layout
// module, and moving a column into a full row are rejected: the layout is returned
// unchanged with a nil error. Identical positions are a no-op. A target index equal to
// the destination length appends; dropping onto a coarser target (a module onto a
// column or a layout module, a column onto a row) appends as well. A column move that
// empties its row leaves an empty column behind. Indices that do not address the tree
// return ErrOutOfRange.
func (e *Editor) Move(ctx context.Context, l domain.Layout, src, dst Position) (domain.Layout, error) {
	return e.mutate(ctx, "move", l, func(out *domain.Layout, m *minter) error {
		if !CanMove(src.Kind, dst.Kind) {
			return reject("%s cannot be dropped on %s", src.Kind, dst.Kind)
		}
		if src == dst {
			return reject("source and target are the same")
		}
		switch src.Kind {
		case KindRow:
			return moveRow(out, src, dst)
		case KindColumn:
			return moveColumn(out, src, dst, m)
		default:
			return moveModule(out, src, dst)
		}
	})
}

func moveRow(l *domain.Layout, src, dst Position) error {
	r, err := rowAt(l, src.Row)
	if err != nil {
		return err
	}
	if dst.Row < 0 || dst.Row > len(l.Rows) {
		return outOfRange("row", dst.Row, len(l.Rows))
	}
	node := *r
	r.ID = tombstone
	l.Rows = insert(l.Rows, dst.Row, node)
	for i := range l.Rows {
		if l.Rows[i].ID == tombstone {
			l.Rows = remove(l.Rows, i)
			break
		}
	}
	return nil
}

func moveColumn(l *domain.Layout, src, dst Position, m *minter) error {
	c, err := columnAt(l, src.Row, src.Column)
	if err != nil {
		return err
	}
	target, err := rowAt(l, dst.Row)
	if err != nil {
		return err
	}
	at := len(target.Columns)
	if dst.Kind == KindColumn {
		if dst.Column < 0 || dst.Column > len(target.Columns) {
			return outOfRange("column", dst.Column, len(target.Columns))
		}
		at = dst.Column
	}
	if src.Row != dst.Row && len(target.Columns) >= domain.MaxColumns {
		return reject("row %d already has %d columns", dst.Row, domain.MaxColumns)
	}

	node := *c
	c.ID = tombstone
	target.Columns = insert(target.Columns, at, node)

	origin := &l.Rows[src.Row]
	for i := range origin.Columns {
		if origin.Columns[i].ID == tombstone {
			origin.Columns = remove(origin.Columns, i)
			break
		}
	}
	if len(origin.Columns) == 0 {
		origin.Columns = []domain.Column{m.emptyColumn()}
	}
	relayout(origin)
	relayout(&l.Rows[dst.Row])
	return nil
}

func moveModule(l *domain.Layout, src, dst Position) error {
	var slot *domain.Module
	var err error
	if src.Kind == KindLayoutChild {
		slot, err = childAt(l, src.Row, src.Column, src.Module, src.Child)
	} else {
		slot, err = moduleAt(l, src.Row, src.Column, src.Module)
	}
	if err != nil {
		return err
	}

	// Resolve the destination before the source slot is touched.
	var (
		list *[]domain.Module
		at   int
	)
	switch dst.Kind {
	case KindColumn:
		c, err := columnAt(l, dst.Row, dst.Column)
		if err != nil {
			return err
		}
		list, at = &c.Modules, len(c.Modules)
	case KindModule:
		c, err := columnAt(l, dst.Row, dst.Column)
		if err != nil {
			return err
		}
		if dst.Module < 0 || dst.Module > len(c.Modules) {
			return outOfRange("module", dst.Module, len(c.Modules))
		}
		list, at = &c.Modules, dst.Module
	case KindLayout, KindLayoutChild:
		if slot.IsLayout() {
			return reject("layout module %q cannot be nested", slot.ID)
		}
		p, err := moduleAt(l, dst.Row, dst.Column, dst.Module)
		if err != nil {
			return err
		}
		if !p.IsLayout() {
			return reject("%s module %q is not a layout module", p.Type, p.ID)
		}
		at = len(p.Modules)
		if dst.Kind == KindLayoutChild {
			if dst.Child < 0 || dst.Child > len(p.Modules) {
				return outOfRange("child", dst.Child, len(p.Modules))
			}
			at = dst.Child
		}
		list = &p.Modules
	}

	node := *slot
	slot.ID = tombstone
	*list = insert(*list, at, node)
	dropTombstone(l)
	return nil
}

// dropTombstone removes the module placeholder left by moveModule.
func dropTombstone(l *domain.Layout) {
	for ri := range l.Rows {
		for ci := range l.Rows[ri].Columns {
			c := &l.Rows[ri].Columns[ci]
			for mi := range c.Modules {
				if c.Modules[mi].ID == tombstone {
					c.Modules = remove(c.Modules, mi)
					return
				}
				p := &c.Modules[mi]
				for ki := range p.Modules {
					if p.Modules[ki].ID == tombstone {
						p.Modules = remove(p.Modules, ki)
						return
					}
				}
			}
		}
	}
}
