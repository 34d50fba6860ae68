package registry

import (
	"strings"

	"github.com/aretw0/ultracard/pkg/condition"
	"github.com/aretw0/ultracard/pkg/domain"
)

// ModuleHandler is the capability set of one module type.
type ModuleHandler interface {
	Metadata() Metadata
	// CreateDefault returns a module with every setting populated.
	CreateDefault(id string) domain.Module
	Validate(m domain.Module) ValidationResult
	// RenderSettings describes the settings form. onChange receives the updated
	// module whenever a field is set through the returned form.
	RenderSettings(m domain.Module, rc RenderContext, onChange func(domain.Module)) Settings
	RenderPreview(m domain.Module, rc RenderContext) Preview
}

// Metadata describes a module type for pickers and search.
type Metadata struct {
	Type        domain.ModuleType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Category    string            `json:"category,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Layout      bool              `json:"layout,omitempty"`
}

func (m Metadata) matches(term string) bool {
	fields := append([]string{string(m.Type), m.Title, m.Description, m.Category}, m.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// ValidationResult is the outcome of a module check.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Valid is the passing result.
func Valid() ValidationResult { return ValidationResult{Valid: true} }

// Invalid builds a failing result from messages.
func Invalid(errs ...string) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}

// RenderContext carries what a handler may read while rendering.
type RenderContext struct {
	Snapshot condition.Snapshot
	// Preview renders a child module; layout handlers use it for their children.
	Preview func(domain.Module) Preview
}

// Preview is a renderer-neutral description of a module: a markdown body plus child
// previews for layout modules.
type Preview struct {
	ModuleID string    `json:"module_id"`
	Type     string    `json:"type"`
	Markdown string    `json:"markdown"`
	Children []Preview `json:"children,omitempty"`
}

// FieldKind selects the editor widget for a setting.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldToggle FieldKind = "toggle"
	FieldSelect FieldKind = "select"
	FieldEntity FieldKind = "entity"
	FieldIcon   FieldKind = "icon"
	FieldColor  FieldKind = "color"
)

// SettingField is one editable setting.
type SettingField struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Value   any       `json:"value,omitempty"`
	Options []string  `json:"options,omitempty"`
}

// Settings is the form for one module.
type Settings struct {
	ModuleID string         `json:"module_id"`
	Fields   []SettingField `json:"fields"`

	set func(key string, value any)
}

// Set updates one field and notifies the onChange callback the form was built with.
func (s Settings) Set(key string, value any) {
	if s.set != nil {
		s.set(key, value)
	}
}

// NewSettings builds a form bound to m. Set clones m, stores value under key in its
// Fields and passes the clone to onChange.
func NewSettings(m domain.Module, fields []SettingField, onChange func(domain.Module)) Settings {
	s := Settings{ModuleID: m.ID, Fields: fields}
	if onChange == nil {
		return s
	}
	base := m.Clone()
	s.set = func(key string, value any) {
		next := base.Clone()
		if next.Fields == nil {
			next.Fields = make(map[string]any)
		}
		next.Fields[key] = value
		base = next
		onChange(next.Clone())
	}
	return s
}
