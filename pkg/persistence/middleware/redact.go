package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.ConfigStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks, before saving, every
// module setting, row or column style and unmodeled root key whose name matches one
// of the patterns (e.g. "token", "password", "api_key"). Nested maps are walked.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ConfigStore) ports.ConfigStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, cardID string, card domain.CardConfig) error {
	// Clone so the caller's card keeps its secrets.
	cloned := card.Clone()

	maskMap(cloned.Extra, m.patterns)
	for i := range cloned.Layout.Rows {
		row := &cloned.Layout.Rows[i]
		maskMap(row.Style, m.patterns)
		for j := range row.Columns {
			maskMap(row.Columns[j].Style, m.patterns)
			maskModules(row.Columns[j].Modules, m.patterns)
		}
	}

	return m.next.Save(ctx, cardID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, cardID string) (domain.CardConfig, error) {
	return m.next.Load(ctx, cardID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, cardID string) error {
	return m.next.Delete(ctx, cardID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskModules(mods []domain.Module, patterns []*regexp.Regexp) {
	for i := range mods {
		maskMap(mods[i].Fields, patterns)
		maskModules(mods[i].Modules, patterns)
	}
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok && m[k] != Mask {
			maskMap(subMap, patterns)
		}
	}
}
