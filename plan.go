package ultracard

import (
	"context"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/logic"
	"github.com/aretw0/ultracard/pkg/ports"
	"github.com/aretw0/ultracard/pkg/registry"
)

// Plan is what a renderer needs to draw a card: the tree with a visibility decision
// on every node. Hidden nodes stay in the plan so hosts can run outro animations.
type Plan struct {
	Rows []RowPlan `json:"rows"`
}

type RowPlan struct {
	ID           string       `json:"id"`
	Visible      bool         `json:"visible"`
	ColumnLayout string       `json:"column_layout"`
	Fractions    []float64    `json:"fractions,omitempty"`
	Columns      []ColumnPlan `json:"columns"`
}

type ColumnPlan struct {
	ID      string       `json:"id"`
	Visible bool         `json:"visible"`
	Modules []ModulePlan `json:"modules"`
}

type ModulePlan struct {
	ID        string                  `json:"id"`
	Type      domain.ModuleType       `json:"type"`
	Visible   bool                    `json:"visible"`
	Animation logic.AnimationDecision `json:"animation"`
	Preview   *registry.Preview       `json:"preview,omitempty"`
	Children  []ModulePlan            `json:"children,omitempty"`
}

// PlanOption tunes a single Plan call.
type PlanOption func(*planConfig)

type planConfig struct {
	detached bool
}

// Detached plans without live template feeds: template-mode nodes are rendered once
// through the cached one-shot path. Servers that plan many unrelated cards on one
// session use it so no feed outlives the request.
func Detached() PlanOption {
	return func(c *planConfig) {
		c.detached = true
	}
}

// Plan walks cfg once against a single snapshot of the session's provider. cfg should
// already be validated. A node under a hidden ancestor is hidden without evaluating
// its own rules.
//
// By default template-mode nodes are kept on live feeds for the next pass, and feeds
// of nodes that are no longer in cfg are released. A session keeps the feeds of the
// card it planned last.
func (s *Session) Plan(ctx context.Context, cfg domain.CardConfig, opts ...PlanOption) Plan {
	return s.PlanWith(ctx, cfg, s.provider, opts...)
}

// PlanWith is Plan against an explicit state reader, e.g. a recorded snapshot.
func (s *Session) PlanWith(ctx context.Context, cfg domain.CardConfig, reader ports.StateReader, opts ...PlanOption) Plan {
	var pc planConfig
	for _, opt := range opts {
		opt(&pc)
	}
	var pass *logic.Pass
	if pc.detached {
		pass = s.logic.NewDetachedPass(ctx, reader)
	} else {
		pass = s.logic.NewPass(ctx, reader)
	}
	defer pass.Done()

	var rc registry.RenderContext
	rc = registry.RenderContext{
		Snapshot: pass.Snapshot(),
		Preview: func(m domain.Module) registry.Preview {
			p, _ := s.registry.RenderPreview(m, rc)
			return p
		},
	}

	plan := Plan{Rows: make([]RowPlan, 0, len(cfg.Layout.Rows))}
	for _, row := range cfg.Layout.Rows {
		rp := RowPlan{
			ID:           row.ID,
			Visible:      pass.Row(row),
			ColumnLayout: row.ColumnLayout,
			Columns:      make([]ColumnPlan, 0, len(row.Columns)),
		}
		if f, ok := domain.Fractions(row.ColumnLayout); ok && len(f) == len(row.Columns) {
			rp.Fractions = f
		}
		for _, col := range row.Columns {
			cp := ColumnPlan{
				ID:      col.ID,
				Visible: rp.Visible && pass.Column(col),
				Modules: make([]ModulePlan, 0, len(col.Modules)),
			}
			for _, m := range col.Modules {
				cp.Modules = append(cp.Modules, s.planModule(pass, rc, m, cp.Visible))
			}
			rp.Columns = append(rp.Columns, cp)
		}
		plan.Rows = append(plan.Rows, rp)
	}
	return plan
}

func (s *Session) planModule(pass *logic.Pass, rc registry.RenderContext, m domain.Module, parentVisible bool) ModulePlan {
	mp := ModulePlan{
		ID:        m.ID,
		Type:      m.Type,
		Visible:   parentVisible && pass.Module(m),
		Animation: pass.Animation(m),
	}
	if p, ok := s.registry.RenderPreview(m, rc); ok {
		mp.Preview = &p
	}
	for _, child := range m.Modules {
		mp.Children = append(mp.Children, s.planModule(pass, rc, child, mp.Visible))
	}
	return mp
}

// Count returns the number of visible and hidden modules, children included.
func (p Plan) Count() (visible, hidden int) {
	var walk func([]ModulePlan)
	walk = func(ms []ModulePlan) {
		for _, m := range ms {
			if m.Visible {
				visible++
			} else {
				hidden++
			}
			walk(m.Children)
		}
	}
	for _, r := range p.Rows {
		for _, c := range r.Columns {
			walk(c.Modules)
		}
	}
	return visible, hidden
}
