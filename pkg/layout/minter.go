package layout

import (
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
)

// minter mints IDs that are unused anywhere in one layout.
type minter struct {
	gen   ids.Generator
	taken map[string]struct{}
}

func newMinter(gen ids.Generator, l domain.Layout) *minter {
	m := &minter{gen: gen, taken: make(map[string]struct{})}
	l.Walk(func(_ string, r *domain.Row, c *domain.Column, mod *domain.Module) bool {
		switch {
		case r != nil:
			m.taken[r.ID] = struct{}{}
		case c != nil:
			m.taken[c.ID] = struct{}{}
		default:
			m.taken[mod.ID] = struct{}{}
		}
		return true
	})
	return m
}

func (m *minter) mint(prefix string) string {
	id := ids.Unique(m.gen.New(prefix), m.taken)
	m.taken[id] = struct{}{}
	return id
}

func (m *minter) row(r domain.Row) domain.Row {
	r.ID = m.mint(ids.PrefixRow)
	for i := range r.Columns {
		r.Columns[i] = m.column(r.Columns[i])
	}
	return r
}

func (m *minter) column(c domain.Column) domain.Column {
	c.ID = m.mint(ids.PrefixColumn)
	for i := range c.Modules {
		c.Modules[i] = m.module(c.Modules[i])
	}
	return c
}

// module gives a cloned subtree fresh IDs, layout children included.
func (m *minter) module(mod domain.Module) domain.Module {
	mod.ID = m.mint(string(mod.Type))
	for i := range mod.Modules {
		mod.Modules[i] = m.module(mod.Modules[i])
	}
	return mod
}
