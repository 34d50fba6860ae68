package domain

import (
	"encoding/json"
	"sort"
)

// LayoutDiff lists the node IDs that differ between two layouts.
// It is designed to be serialized to JSON for partial updates on the client.
type LayoutDiff struct {
	// Added holds IDs present only in the new layout.
	Added []string `json:"added,omitempty"`
	// Removed holds IDs present only in the old layout.
	Removed []string `json:"removed,omitempty"`
	// Moved holds IDs whose location changed.
	Moved []string `json:"moved,omitempty"`
	// Modified holds IDs at the same location whose own settings changed.
	// Changes inside children are reported on the children, not the parent.
	Modified []string `json:"modified,omitempty"`
}

type nodeEntry struct {
	path   string
	digest string
}

// Diff calculates the difference between two layouts.
// It returns nil when both layouts hold the same nodes at the same places.
func Diff(oldLayout, newLayout Layout) *LayoutDiff {
	before := indexNodes(oldLayout)
	after := indexNodes(newLayout)

	diff := &LayoutDiff{}
	for id, n := range after {
		o, exists := before[id]
		switch {
		case !exists:
			diff.Added = append(diff.Added, id)
		case o.path != n.path:
			diff.Moved = append(diff.Moved, id)
		case o.digest != n.digest:
			diff.Modified = append(diff.Modified, id)
		}
	}
	for id := range before {
		if _, exists := after[id]; !exists {
			diff.Removed = append(diff.Removed, id)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Moved)
	sort.Strings(diff.Modified)
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *LayoutDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0 && len(d.Modified) == 0
}

func indexNodes(l Layout) map[string]nodeEntry {
	idx := make(map[string]nodeEntry)
	l.Walk(func(path string, row *Row, col *Column, m *Module) bool {
		var (
			id   string
			self any
		)
		switch {
		case row != nil:
			r := *row
			r.Columns = nil
			id, self = row.ID, r
		case col != nil:
			c := *col
			c.Modules = nil
			id, self = col.ID, c
		default:
			mod := *m
			mod.Modules = nil
			id, self = m.ID, mod
		}
		b, _ := json.Marshal(self)
		idx[id] = nodeEntry{path: path, digest: string(b)}
		return true
	})
	return idx
}
