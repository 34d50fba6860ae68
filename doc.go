/*
Package ultracard is the core of a dashboard card builder.

A card is a tree of rows, columns and modules. Rows split into columns following a named
proportion template; columns stack modules; layout modules (horizontal, vertical,
accordion, popup, slider) hold one level of child modules. Every node carries a
visibility rule set that is evaluated against live entity states and server-side
templates.

# Components

  - registry: the open set of module types and their defaults, validation and previews.
  - validator: repairs untrusted card documents and reports diagnostics.
  - layout: pure tree mutations, including drag-and-drop moves.
  - logic, condition, template: visibility decisions and live template feeds.

A Session wires one instance of each for a single card tree.

# Usage

	sess := ultracard.New(ultracard.WithStateProvider(provider))
	defer sess.Close()

	res := sess.Validate(ctx, cfg)
	if !res.Valid {
		// res.Errors lists the dropped nodes
	}

	cfg.Layout, err = sess.Editor().AddRow(ctx, res.Config.Layout)

	plan := sess.Plan(ctx, res.Config)
	for _, row := range plan.Rows {
		// render row.Columns, skipping nodes with Visible == false
	}
*/
package ultracard
