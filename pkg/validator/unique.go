package validator

import (
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
)

// dedupe renames duplicate identifiers in document order. Rows, columns and modules
// are checked as separate scopes; module IDs are unique card-wide, layout children
// included. The first occurrence keeps its ID and later ones get the first free
// "<id>-N" suffix.
func (p *pass) dedupe(l *domain.Layout) {
	rows, cols, mods := newScope(), newScope(), newScope()
	l.Walk(func(_ string, r *domain.Row, c *domain.Column, m *domain.Module) bool {
		switch {
		case r != nil:
			rows.collect(r.ID)
		case c != nil:
			cols.collect(c.ID)
		case m != nil:
			mods.collect(m.ID)
		}
		return true
	})

	l.Walk(func(path string, r *domain.Row, c *domain.Column, m *domain.Module) bool {
		var id *string
		var s scope
		switch {
		case r != nil:
			id, s = &r.ID, rows
		case c != nil:
			id, s = &c.ID, cols
		default:
			id, s = &m.ID, mods
		}
		if fresh, renamed := s.claim(*id); renamed {
			p.warn(domain.CodeDuplicateID, path, "duplicate id %q renamed to %q", *id, fresh)
			*id = fresh
		}
		return true
	})
}

type scope struct {
	all  map[string]struct{}
	seen map[string]struct{}
}

func newScope() scope {
	return scope{all: make(map[string]struct{}), seen: make(map[string]struct{})}
}

func (s scope) collect(id string) {
	s.all[id] = struct{}{}
}

// claim marks id as used and returns a replacement when it was already claimed.
func (s scope) claim(id string) (string, bool) {
	if _, dup := s.seen[id]; !dup {
		s.seen[id] = struct{}{}
		return id, false
	}
	fresh := ids.Unique(id, s.all)
	s.all[fresh] = struct{}{}
	s.seen[fresh] = struct{}{}
	return fresh, true
}
