package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/condition"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/modules"
	"github.com/aretw0/ultracard/pkg/registry"
)

func newRegistry() *registry.Registry {
	reg := registry.New(registry.WithIDGenerator(ids.NewSequence()))
	modules.Register(reg)
	return reg
}

func TestBuiltins_CreateDefaultIsValid(t *testing.T) {
	reg := newRegistry()
	for _, md := range reg.List() {
		t.Run(string(md.Type), func(t *testing.T) {
			m, ok := reg.CreateDefault(md.Type, "")
			require.True(t, ok)
			assert.Equal(t, string(md.Type)+"-1", m.ID)
			assert.NotEmpty(t, m.Fields)

			res := reg.Validate(m)
			assert.True(t, res.Valid, "%v", res.Errors)

			if md.Layout {
				assert.NotNil(t, m.Modules)
				assert.Empty(t, m.Modules)
			} else {
				assert.Nil(t, m.Modules)
			}
		})
	}
}

func TestText_DefaultsAndValidation(t *testing.T) {
	reg := newRegistry()
	m, ok := reg.CreateDefault(modules.TypeText, "t1")
	require.True(t, ok)
	assert.Equal(t, "Sample Text", m.Fields["text"])
	assert.Equal(t, 16.0, m.Fields["font_size"])

	m.Fields["alignment"] = "diagonal"
	m.Fields["font_size"] = "huge"
	res := reg.Validate(m)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}

func TestLayout_RejectsNestedLayout(t *testing.T) {
	reg := newRegistry()
	outer, _ := reg.CreateDefault(domain.ModuleHorizontal, "h1")
	inner, _ := reg.CreateDefault(domain.ModuleVertical, "v1")
	text, _ := reg.CreateDefault(modules.TypeText, "t1")

	outer.Modules = []domain.Module{text}
	assert.True(t, reg.Validate(outer).Valid)

	outer.Modules = append(outer.Modules, inner)
	res := reg.Validate(outer)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "cannot be nested")

	text.Modules = []domain.Module{{ID: "x", Type: modules.TypeText}}
	assert.False(t, reg.Validate(text).Valid)
}

func TestSettings_SetNotifiesChange(t *testing.T) {
	reg := newRegistry()
	m, _ := reg.CreateDefault(modules.TypeText, "t1")

	var got []domain.Module
	form, ok := reg.RenderSettings(m, registry.RenderContext{}, func(updated domain.Module) {
		got = append(got, updated)
	})
	require.True(t, ok)
	require.Len(t, form.Fields, 5)
	assert.Equal(t, "text", form.Fields[0].Key)
	assert.Equal(t, "Sample Text", form.Fields[0].Value)

	form.Set("text", "Hello")
	form.Set("bold", true)

	require.Len(t, got, 2)
	assert.Equal(t, "Hello", got[1].Fields["text"])
	assert.Equal(t, true, got[1].Fields["bold"])
	assert.Equal(t, "Sample Text", m.Fields["text"], "original module untouched")
}

func TestPreview(t *testing.T) {
	reg := newRegistry()
	snap := condition.Static{States: map[string]domain.EntityState{"sensor.battery": {State: "60"}}}
	rc := registry.RenderContext{Snapshot: snap}

	bar, _ := reg.CreateDefault(modules.TypeBar, "b1")
	bar.Fields["entity"] = "sensor.battery"
	p, ok := reg.RenderPreview(bar, rc)
	require.True(t, ok)
	assert.Equal(t, "`[▓▓▓▓▓▓░░░░]` 60%", p.Markdown)

	text, _ := reg.CreateDefault(modules.TypeText, "t1")
	text.Fields["bold"] = true
	acc, _ := reg.CreateDefault(domain.ModuleAccordion, "a1")
	acc.Modules = []domain.Module{text}
	rc.Preview = func(child domain.Module) registry.Preview {
		p, _ := reg.RenderPreview(child, rc)
		return p
	}
	p, _ = reg.RenderPreview(acc, rc)
	assert.Equal(t, "▸ **Accordion**", p.Markdown)
	require.Len(t, p.Children, 1)
	assert.Equal(t, "**Sample Text**", p.Children[0].Markdown)

	_, ok = reg.RenderPreview(domain.Module{ID: "x", Type: "weather"}, rc)
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	reg := newRegistry()

	layouts := reg.Search("container")
	assert.Len(t, layouts, 5)
	for _, md := range layouts {
		assert.True(t, md.Layout)
	}

	got := reg.Search("BATTERY")
	require.Len(t, got, 1)
	assert.Equal(t, modules.TypeBar, got[0].Type)

	assert.Len(t, reg.Search(""), 10)
	assert.Empty(t, reg.Search("nothing-matches"))
}
