package domain

import "fmt"

// RowPath, ColumnPath and ModulePath build the dotted locations used by diagnostics
// and diffs.
func RowPath(row int) string {
	return fmt.Sprintf("layout.rows[%d]", row)
}

func ColumnPath(row, col int) string {
	return fmt.Sprintf("%s.columns[%d]", RowPath(row), col)
}

func ModulePath(row, col, mod int) string {
	return fmt.Sprintf("%s.modules[%d]", ColumnPath(row, col), mod)
}

// ChildPath appends a layout child index to a module path.
func ChildPath(parent string, child int) string {
	return fmt.Sprintf("%s.modules[%d]", parent, child)
}

// Visit is called for every node of a layout in document order. Exactly one of row,
// column and module is non-nil. Returning false stops the walk.
type Visit func(path string, row *Row, column *Column, module *Module) bool

// Walk traverses the layout depth-first in document order, descending into layout
// children. The pointers address the layout's own backing arrays.
func (l Layout) Walk(fn Visit) {
	for ri := range l.Rows {
		row := &l.Rows[ri]
		if !fn(RowPath(ri), row, nil, nil) {
			return
		}
		for ci := range row.Columns {
			col := &row.Columns[ci]
			if !fn(ColumnPath(ri, ci), nil, col, nil) {
				return
			}
			for mi := range col.Modules {
				if !walkModule(ModulePath(ri, ci, mi), &col.Modules[mi], fn) {
					return
				}
			}
		}
	}
}

func walkModule(path string, m *Module, fn Visit) bool {
	if !fn(path, nil, nil, m) {
		return false
	}
	for i := range m.Modules {
		if !walkModule(ChildPath(path, i), &m.Modules[i], fn) {
			return false
		}
	}
	return true
}

// ModuleIDs returns every module ID, including layout children, in document order.
func (l Layout) ModuleIDs() []string {
	var ids []string
	l.Walk(func(_ string, _ *Row, _ *Column, m *Module) bool {
		if m != nil {
			ids = append(ids, m.ID)
		}
		return true
	})
	return ids
}

// ModuleCount counts modules including layout children.
func (l Layout) ModuleCount() int {
	return len(l.ModuleIDs())
}

// FindModule returns the path and a copy of the first module with the given ID.
func (l Layout) FindModule(id string) (string, Module, bool) {
	var (
		found Module
		where string
		ok    bool
	)
	l.Walk(func(path string, _ *Row, _ *Column, m *Module) bool {
		if m != nil && m.ID == id {
			found, where, ok = m.Clone(), path, true
			return false
		}
		return true
	})
	return where, found, ok
}
