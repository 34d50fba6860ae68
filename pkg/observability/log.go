package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ultracard/pkg/domain"
)

// LogHooks returns lifecycle hooks that write each event to logger. Mutations and
// validations log at Info; the per-node and per-query events log at Debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnValidate: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.InfoContext(ctx, "card_validated",
				"valid", e.Valid,
				"errors", e.Errors,
				"warnings", e.Warnings,
			)
		},
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			attrs := []any{"op", e.Op, "changed", e.Changed}
			if e.Diff != nil {
				attrs = append(attrs,
					"added", len(e.Diff.Added),
					"removed", len(e.Diff.Removed),
					"moved", len(e.Diff.Moved),
				)
			}
			logger.InfoContext(ctx, "layout_mutation", attrs...)
		},
		OnTemplate: func(ctx context.Context, e *domain.TemplateEvent) {
			logger.DebugContext(ctx, "template_query",
				"key", e.Key,
				"result", e.Result,
				"cached", e.Cached,
				"is_error", e.IsError,
			)
		},
		OnEvaluate: func(ctx context.Context, e *domain.EvaluationEvent) {
			logger.DebugContext(ctx, "visibility",
				"node_id", e.NodeID,
				"mode", e.Mode,
				"visible", e.Visible,
			)
		},
	}
}
