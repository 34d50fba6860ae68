package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleLayout() Layout {
	return Layout{Rows: []Row{
		{
			ID:           "row-1",
			ColumnLayout: "1-2-1-2",
			Columns: []Column{
				{ID: "col-1", Modules: []Module{
					{ID: "text-1", Type: "text", Fields: map[string]any{"text": "hello"}},
					{ID: "hz-1", Type: ModuleHorizontal, Modules: []Module{
						{ID: "icon-1", Type: "icon"},
					}},
				}},
				{ID: "col-2", Modules: []Module{}},
			},
		},
	}}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(l *Layout)
		wantDiff *LayoutDiff // nil means we expect no diff
	}{
		{
			name:     "No Changes",
			mutate:   func(l *Layout) {},
			wantDiff: nil,
		},
		{
			name: "Module Added",
			mutate: func(l *Layout) {
				l.Rows[0].Columns[1].Modules = append(l.Rows[0].Columns[1].Modules, Module{ID: "bar-1", Type: "bar"})
			},
			wantDiff: &LayoutDiff{Added: []string{"bar-1"}},
		},
		{
			name: "Layout Child Removed",
			mutate: func(l *Layout) {
				l.Rows[0].Columns[0].Modules[1].Modules = nil
			},
			wantDiff: &LayoutDiff{Removed: []string{"icon-1"}},
		},
		{
			name: "Module Moved Across Columns",
			mutate: func(l *Layout) {
				m := l.Rows[0].Columns[0].Modules[0]
				l.Rows[0].Columns[0].Modules = l.Rows[0].Columns[0].Modules[1:]
				l.Rows[0].Columns[1].Modules = []Module{m}
			},
			// hz-1 and its child shift up one slot as well.
			wantDiff: &LayoutDiff{Moved: []string{"hz-1", "icon-1", "text-1"}},
		},
		{
			name: "Field Modified In Place",
			mutate: func(l *Layout) {
				l.Rows[0].Columns[0].Modules[0].Fields["text"] = "bye"
			},
			wantDiff: &LayoutDiff{Modified: []string{"text-1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sampleLayout()
			after := before.Clone()
			tt.mutate(&after)

			got := Diff(before, after)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(tt.wantDiff)
				t.Errorf("Diff() = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestClone_DoesNotAlias(t *testing.T) {
	before := sampleLayout()
	after := before.Clone()

	after.Rows[0].Columns[0].Modules[0].Fields["text"] = "changed"
	after.Rows[0].Columns[0].Modules[1].Modules[0].ID = "icon-2"

	if before.Rows[0].Columns[0].Modules[0].Fields["text"] != "hello" {
		t.Errorf("clone shares the fields map with the original")
	}
	if before.Rows[0].Columns[0].Modules[1].Modules[0].ID != "icon-1" {
		t.Errorf("clone shares layout children with the original")
	}
}
