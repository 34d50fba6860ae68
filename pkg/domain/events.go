package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventValidate EventType = "validate"
	EventMutation EventType = "mutation"
	EventTemplate EventType = "template"
	EventEvaluate EventType = "evaluate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ValidationEvent is emitted after a card document has been validated.
type ValidationEvent struct {
	EventBase
	Valid    bool `json:"valid"`
	Errors   int  `json:"errors"`
	Warnings int  `json:"warnings"`
}

// MutationEvent is emitted after a layout operation. Changed is false for no-op and
// rejected operations.
type MutationEvent struct {
	EventBase
	Op      string      `json:"op"`
	Changed bool        `json:"changed"`
	Diff    *LayoutDiff `json:"diff,omitempty"`
}

// TemplateEvent is emitted for every query against the templating backend.
type TemplateEvent struct {
	EventBase
	Key     string `json:"key,omitempty"`
	Result  bool   `json:"result"`
	Cached  bool   `json:"cached,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// EvaluationEvent is emitted for every node visibility decision.
type EvaluationEvent struct {
	EventBase
	NodeID  string `json:"node_id"`
	Mode    string `json:"mode"`
	Visible bool   `json:"visible"`
}

// LifecycleHooks defines callbacks for observability. Nil callbacks are skipped.
type LifecycleHooks struct {
	OnValidate func(context.Context, *ValidationEvent)
	OnMutation func(context.Context, *MutationEvent)
	OnTemplate func(context.Context, *TemplateEvent)
	OnEvaluate func(context.Context, *EvaluationEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnValidate: chain(h.OnValidate, other.OnValidate),
		OnMutation: chain(h.OnMutation, other.OnMutation),
		OnTemplate: chain(h.OnTemplate, other.OnTemplate),
		OnEvaluate: chain(h.OnEvaluate, other.OnEvaluate),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
