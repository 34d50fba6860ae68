package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ultracard/pkg/domain"
)

// Overlay carries plan decisions to visualize on the diagram.
type Overlay struct {
	// Hidden lists the IDs of nodes whose visibility rules evaluated to hidden.
	Hidden []string
	// Animating lists the IDs of modules with an active state-triggered animation.
	Animating []string
}

// GenerateMermaid produces a Mermaid flowchart of the card tree.
// It applies semantic shapes:
// - Card: ((Circle))
// - Row: [/Parallelogram/]
// - Column: [Rectangle]
// - Layout module: [[Subroutine]]
// - Leaf module: (Rounded)
// Nodes carrying visibility rules are annotated, and overlay styles are applied if provided.
func GenerateMermaid(cfg domain.CardConfig, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    card((\"card\"))\n")

	for _, row := range cfg.Layout.Rows {
		rowID := sanitizeMermaidID("row_" + row.ID)
		writeNode(&sb, rowID, "[/", "/]", "row "+row.ID+layoutSuffix(row.ColumnLayout), row.Visibility)
		fmt.Fprintf(&sb, "    card --> %s\n", rowID)

		for _, col := range row.Columns {
			colID := sanitizeMermaidID("col_" + col.ID)
			writeNode(&sb, colID, "[", "]", "column "+col.ID, col.Visibility)
			fmt.Fprintf(&sb, "    %s --> %s\n", rowID, colID)
			writeModules(&sb, colID, col.Modules)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef hidden fill:#eceff1,stroke:#90a4ae,stroke-dasharray:4 4,color:#000;\n")
		sb.WriteString("    classDef animating fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		writeClass(&sb, "hidden", overlay.Hidden, cfg)
		writeClass(&sb, "animating", overlay.Animating, cfg)
	}

	return sb.String()
}

func writeModules(sb *strings.Builder, parentID string, mods []domain.Module) {
	for _, m := range mods {
		modID := sanitizeMermaidID("mod_" + m.ID)
		opener, closer := "(", ")"
		if m.IsLayout() {
			opener, closer = "[[", "]]"
		}
		label := string(m.Type) + " " + m.ID
		if m.AnimationType != "" && m.AnimationType != "none" {
			label += " <br/> ✨ " + m.AnimationType
		}
		writeNode(sb, modID, opener, closer, label, m.Visibility)
		fmt.Fprintf(sb, "    %s --> %s\n", parentID, modID)
		writeModules(sb, modID, m.Modules)
	}
}

func writeNode(sb *strings.Builder, id, opener, closer, label string, v domain.Visibility) {
	if rule := ruleSummary(v); rule != "" {
		label += " <br/> 👁 " + rule
	}
	fmt.Fprintf(sb, "    %s%s\"%s\"%s\n", id, opener, strings.ReplaceAll(label, "\"", "'"), closer)
}

// ruleSummary is empty for nodes that are always shown.
func ruleSummary(v domain.Visibility) string {
	if v.TemplateMode && strings.TrimSpace(v.Template) != "" {
		return "template"
	}
	switch v.DisplayMode {
	case domain.DisplayEvery, domain.DisplayAny:
		return fmt.Sprintf("%s of %d", v.DisplayMode, len(v.DisplayConditions))
	}
	return ""
}

func layoutSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " (" + name + ")"
}

// writeClass styles ids; the prefix of each id depends on the node kind it names.
func writeClass(sb *strings.Builder, class string, ids []string, cfg domain.CardConfig) {
	kinds := nodeKinds(cfg)
	seen := make(map[string]bool)
	for _, id := range ids {
		prefix, ok := kinds[id]
		if !ok {
			continue
		}
		safeID := sanitizeMermaidID(prefix + id)
		if !seen[safeID] {
			seen[safeID] = true
			fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
		}
	}
}

func nodeKinds(cfg domain.CardConfig) map[string]string {
	kinds := make(map[string]string)
	var walk func([]domain.Module)
	walk = func(mods []domain.Module) {
		for _, m := range mods {
			kinds[m.ID] = "mod_"
			walk(m.Modules)
		}
	}
	for _, r := range cfg.Layout.Rows {
		kinds[r.ID] = "row_"
		for _, c := range r.Columns {
			kinds[c.ID] = "col_"
			walk(c.Modules)
		}
	}
	return kinds
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
