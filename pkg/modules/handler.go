package modules

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/schema"
)

// handler implements registry.ModuleHandler over a typed settings struct T.
type handler[T any] struct {
	meta     registry.Metadata
	fields   schema.Fields
	defaults func() T
	form     []registry.SettingField
	preview  func(s T, m domain.Module, rc registry.RenderContext) string
}

func (h *handler[T]) Metadata() registry.Metadata {
	md := h.meta
	md.Layout = domain.IsLayoutType(md.Type)
	return md
}

func (h *handler[T]) CreateDefault(id string) domain.Module {
	m := domain.Module{ID: id, Type: h.meta.Type, Fields: encode(h.defaults())}
	if domain.IsLayoutType(h.meta.Type) {
		m.Modules = []domain.Module{}
	}
	return m
}

func (h *handler[T]) Validate(m domain.Module) registry.ValidationResult {
	var errs []string
	if err := schema.Validate(h.fields, m.Fields); err != nil {
		errs = append(errs, messages(err)...)
	}
	if _, err := h.decode(m); err != nil && len(errs) == 0 {
		errs = append(errs, err.Error())
	}
	if domain.IsLayoutType(m.Type) {
		for i, child := range m.Modules {
			if child.IsLayout() {
				errs = append(errs, fmt.Sprintf("child %d (%s): layout modules cannot be nested", i, child.Type))
			}
		}
	} else if len(m.Modules) > 0 {
		errs = append(errs, "only layout modules can contain modules")
	}
	if len(errs) > 0 {
		return registry.Invalid(errs...)
	}
	return registry.Valid()
}

func (h *handler[T]) RenderSettings(m domain.Module, _ registry.RenderContext, onChange func(domain.Module)) registry.Settings {
	values := encode(h.settingsOf(m))
	fields := make([]registry.SettingField, len(h.form))
	for i, f := range h.form {
		f.Value = values[f.Key]
		fields[i] = f
	}
	return registry.NewSettings(m, fields, onChange)
}

func (h *handler[T]) RenderPreview(m domain.Module, rc registry.RenderContext) registry.Preview {
	p := registry.Preview{ModuleID: m.ID, Type: string(m.Type)}
	p.Markdown = h.preview(h.settingsOf(m), m, rc)
	if domain.IsLayoutType(m.Type) && rc.Preview != nil {
		for _, child := range m.Modules {
			p.Children = append(p.Children, rc.Preview(child))
		}
	}
	return p
}

// settingsOf decodes m over the defaults, falling back to the defaults on error.
func (h *handler[T]) settingsOf(m domain.Module) T {
	s, err := h.decode(m)
	if err != nil {
		return h.defaults()
	}
	return s
}

func (h *handler[T]) decode(m domain.Module) (T, error) {
	s := h.defaults()
	if len(m.Fields) == 0 {
		return s, nil
	}
	if err := mapstructure.Decode(m.Fields, &s); err != nil {
		return h.defaults(), fmt.Errorf("decode %s settings: %w", m.Type, err)
	}
	return s, nil
}

// encode flattens a settings struct into a field bag keyed by its mapstructure tags.
func encode(v any) map[string]any {
	out := make(map[string]any)
	if err := mapstructure.Decode(v, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func messages(err error) []string {
	errs := schema.Problems(err)
	if errs == nil {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

// Register adds every built-in handler to reg.
func Register(reg *registry.Registry) {
	for _, h := range Builtins() {
		reg.Register(h)
	}
}

// Builtins returns fresh instances of the built-in handlers.
func Builtins() []registry.ModuleHandler {
	return []registry.ModuleHandler{
		Text(), Icon(), Separator(), Image(), Bar(),
		Horizontal(), Vertical(), Accordion(), Popup(), Slider(),
	}
}
