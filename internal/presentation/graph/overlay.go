package graph

import "github.com/aretw0/ultracard"

// FromPlan collects the hidden and animating nodes of a plan.
func FromPlan(plan ultracard.Plan) *Overlay {
	o := &Overlay{}
	var walk func([]ultracard.ModulePlan)
	walk = func(mods []ultracard.ModulePlan) {
		for _, m := range mods {
			if !m.Visible {
				o.Hidden = append(o.Hidden, m.ID)
			}
			if m.Animation.Active != "" {
				o.Animating = append(o.Animating, m.ID)
			}
			walk(m.Children)
		}
	}
	for _, r := range plan.Rows {
		if !r.Visible {
			o.Hidden = append(o.Hidden, r.ID)
		}
		for _, c := range r.Columns {
			if !c.Visible {
				o.Hidden = append(o.Hidden, c.ID)
			}
			walk(c.Modules)
		}
	}
	return o
}
