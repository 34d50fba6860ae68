package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/validator"
)

// ValidationReport renders a validation result as markdown.
func ValidationReport(source string, res validator.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", source)

	rows, modules := 0, 0
	for _, r := range res.Config.Layout.Rows {
		rows++
		for _, c := range r.Columns {
			modules += countModules(c.Modules)
		}
	}
	verdict := "valid"
	if !res.Valid {
		verdict = "**invalid**"
	}
	fmt.Fprintf(&b, "%s: %d rows, %d modules, %d errors, %d warnings.\n\n",
		verdict, rows, modules, len(res.Errors), len(res.Warnings))

	writeDiagnostics(&b, "Errors", res.Errors)
	writeDiagnostics(&b, "Warnings", res.Warnings)
	return b.String()
}

func countModules(mods []domain.Module) int {
	n := len(mods)
	for _, m := range mods {
		n += countModules(m.Modules)
	}
	return n
}

func writeDiagnostics(b *strings.Builder, title string, diags []domain.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| Path | Code | Message |\n|---|---|---|\n")
	for _, d := range diags {
		fmt.Fprintf(b, "| `%s` | %s | %s |\n", d.Path, d.Code, escapeCell(d.Message))
	}
	b.WriteString("\n")
}

// PlanReport renders the visibility decisions of a plan as a nested list.
func PlanReport(plan ultracard.Plan) string {
	var b strings.Builder
	visible, hidden := plan.Count()
	fmt.Fprintf(&b, "# Plan\n\n%d visible, %d hidden.\n\n", visible, hidden)
	for _, r := range plan.Rows {
		fmt.Fprintf(&b, "- %s row `%s` (%s)\n", mark(r.Visible), r.ID, r.ColumnLayout)
		for _, c := range r.Columns {
			fmt.Fprintf(&b, "  - %s column `%s`\n", mark(c.Visible), c.ID)
			writeModules(&b, c.Modules, 2)
		}
	}
	return b.String()
}

func writeModules(b *strings.Builder, mods []ultracard.ModulePlan, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, m := range mods {
		fmt.Fprintf(b, "%s- %s %s `%s`", indent, mark(m.Visible), m.Type, m.ID)
		if m.Animation.Active != "" {
			fmt.Fprintf(b, " animating *%s*", m.Animation.Active)
		}
		if m.Preview != nil && m.Preview.Markdown != "" {
			fmt.Fprintf(b, ": %s", firstLine(m.Preview.Markdown))
		}
		b.WriteString("\n")
		writeModules(b, m.Children, depth+1)
	}
}

// ModulesReport renders module metadata as a table.
func ModulesReport(mods []registry.Metadata) string {
	var b strings.Builder
	b.WriteString("| Type | Title | Category | Description |\n|---|---|---|---|\n")
	for _, m := range mods {
		title := m.Title
		if m.Layout {
			title += " (layout)"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", m.Type, title, m.Category, escapeCell(m.Description))
	}
	return b.String()
}

func mark(visible bool) string {
	if visible {
		return "[x]"
	}
	return "[ ]"
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
