package logic

import (
	"context"

	"github.com/aretw0/ultracard/pkg/condition"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
)

// Pass evaluates many nodes against one captured snapshot.
//
// A live pass keeps template-mode nodes on feeds that outlast it; Done releases the
// feeds of nodes the pass did not visit, so one live pass at a time per card tree
// keeps exactly the feeds its card needs. A detached pass opens no feeds.
type Pass struct {
	svc  *Service
	ctx  context.Context
	snap condition.Snapshot
	live bool
	seen map[string]struct{}
}

// NewPass captures reader once for a rendering pass backed by live template feeds.
func (s *Service) NewPass(ctx context.Context, reader ports.StateReader) *Pass {
	return &Pass{svc: s, ctx: ctx, snap: s.Snapshot(ctx, reader), live: true, seen: make(map[string]struct{})}
}

// NewDetachedPass captures reader once and answers template mode through the cached
// one-shot path. Stateless callers that plan unrelated cards use it.
func (s *Service) NewDetachedPass(ctx context.Context, reader ports.StateReader) *Pass {
	return &Pass{svc: s, ctx: ctx, snap: s.Snapshot(ctx, reader)}
}

// Snapshot returns the captured world.
func (p *Pass) Snapshot() condition.Snapshot { return p.snap }

func (p *Pass) Row(r domain.Row) bool {
	return p.decide(r.ID, r.Visibility)
}

func (p *Pass) Column(c domain.Column) bool {
	return p.decide(c.ID, c.Visibility)
}

func (p *Pass) Module(m domain.Module) bool {
	return p.decide(m.ID, m.Visibility)
}

func (p *Pass) Animation(m domain.Module) AnimationDecision {
	return Animation(m.Animation, p.snap)
}

// Done releases the feeds this pass no longer needs. It is a no-op for detached passes.
func (p *Pass) Done() {
	if p.live {
		p.svc.Retain(p.seen)
	}
}

func (p *Pass) decide(id string, v domain.Visibility) bool {
	if p.live && id != "" && v.TemplateMode && v.Template != "" {
		p.seen[id] = struct{}{}
	}
	return p.svc.visible(p.ctx, id, v, p.snap, p.live)
}
