package validator_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/modules"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/validator"
)

func newValidator(opts ...validator.Option) *validator.Validator {
	seq := ids.NewSequence()
	reg := registry.New(registry.WithIDGenerator(seq))
	modules.Register(reg)
	return validator.New(reg, append([]validator.Option{validator.WithIDGenerator(seq)}, opts...)...)
}

func decode(t *testing.T, doc string) domain.CardConfig {
	t.Helper()
	var cfg domain.CardConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &cfg))
	return cfg
}

func codes(ds []domain.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

const messy = `{
	"layout": {"rows": [
		{"columns": [
			{"modules": [
				{"type": "text", "text": "Hello", "font_size": 20},
				{"id": "ghost"},
				{"id": "w1", "type": "weather"},
				{"id": "h1", "type": "horizontal", "modules": [
					{"id": "t2", "type": "text"},
					{"id": "v1", "type": "vertical"}
				]}
			]},
			{}
		]},
		{"id": "r2", "column_layout": "1-3-2-3"}
	]}
}`

func TestValidate_RepairsMessyDocument(t *testing.T) {
	res := newValidator().Validate(context.Background(), decode(t, messy))

	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		domain.CodeMissingType,
		domain.CodeUnknownType,
		domain.CodeNestedLayout,
	}, codes(res.Errors))
	assert.ElementsMatch(t, []string{
		domain.CodeCardType,
		domain.CodeMissingID, // row
		domain.CodeMissingID, // first column
		domain.CodeMissingID, // text module
		domain.CodeMissingID, // second column
		domain.CodeMissingModules,
		domain.CodeMissingColumns,
		domain.CodeEmptyRow,
		domain.CodeColumnLayout,
	}, codes(res.Warnings))

	cfg := res.Config
	assert.Equal(t, domain.CardType, cfg.Type)
	require.Len(t, cfg.Layout.Rows, 2)

	row := cfg.Layout.Rows[0]
	assert.Equal(t, "row-1", row.ID)
	assert.Equal(t, "1-2-1-2", row.ColumnLayout)
	require.Len(t, row.Columns, 2)
	mods := row.Columns[0].Modules
	require.Len(t, mods, 2, "modules without or with unknown type are dropped")

	text := mods[0]
	assert.Equal(t, "text-1", text.ID)
	assert.Equal(t, "Hello", text.Fields["text"], "user fields win")
	assert.Equal(t, 20.0, text.Fields["font_size"])
	assert.Equal(t, "left", text.Fields["alignment"], "defaults fill the gaps")

	h := mods[1]
	require.Len(t, h.Modules, 1, "nested layout dropped")
	assert.Equal(t, "t2", h.Modules[0].ID)
	assert.Equal(t, "Sample Text", h.Modules[0].Fields["text"])

	assert.NotNil(t, row.Columns[1].Modules)

	r2 := cfg.Layout.Rows[1]
	require.Len(t, r2.Columns, 1, "empty row gets one column")
	assert.Equal(t, domain.SingleColumn, r2.ColumnLayout)
}

func TestValidate_Idempotent(t *testing.T) {
	v := newValidator()
	first := v.Validate(context.Background(), decode(t, messy))

	second := v.Validate(context.Background(), first.Config)
	assert.Empty(t, second.Warnings)
	assert.Empty(t, second.Errors)
	assert.True(t, second.Valid)
	assert.Equal(t, first.Config, second.Config)

	data, err := json.Marshal(first.Config)
	require.NoError(t, err)
	third := v.Validate(context.Background(), decode(t, string(data)))
	assert.Empty(t, third.Warnings)

	again, err := json.Marshal(third.Config)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestValidate_DuplicateIDs(t *testing.T) {
	doc := `{"type": "custom:ultra-card", "layout": {"rows": [
		{"id": "r1", "column_layout": "1-2-1-2", "columns": [
			{"id": "c1", "modules": [
				{"id": "m", "type": "text"},
				{"id": "m", "type": "text"}
			]},
			{"id": "c1", "modules": [
				{"id": "m-2", "type": "icon"},
				{"id": "a", "type": "accordion", "modules": [{"id": "m", "type": "bar"}]}
			]}
		]}
	]}}`

	res := newValidator().Validate(context.Background(), decode(t, doc))
	require.True(t, res.Valid)

	assert.Equal(t, []string{"m", "m-3", "m-2", "a", "m-4"}, res.Config.Layout.ModuleIDs())
	assert.Equal(t, "c1-2", res.Config.Layout.Rows[0].Columns[1].ID)
	assert.Equal(t, []string{
		domain.CodeDuplicateID, domain.CodeDuplicateID, domain.CodeDuplicateID,
	}, codes(res.Warnings))
}

func TestValidate_HoistsChildrenOfLeaf(t *testing.T) {
	doc := `{"type": "custom:ultra-card", "layout": {"rows": [
		{"id": "r1", "columns": [{"id": "c1", "modules": [
			{"id": "t1", "type": "text", "modules": [{"id": "t2", "type": "text"}]},
			{"id": "t3", "type": "text"}
		]}]}
	]}}`

	res := newValidator().Validate(context.Background(), decode(t, doc))
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"t1", "t2", "t3"}, res.Config.Layout.ModuleIDs())
	assert.Contains(t, codes(res.Warnings), domain.CodeChildrenOnLeaf)
}

func TestValidate_PathsSurviveHoisting(t *testing.T) {
	doc := `{"type": "custom:ultra-card", "layout": {"rows": [
		{"id": "r1", "column_layout": "1-col", "columns": [{"id": "c1", "modules": [
			{"id": "t1", "type": "text", "modules": [{"id": "t2"}, {"id": "t4", "type": "text"}]},
			{"id": "w1", "type": "weather"}
		]}]}
	]}}`

	res := newValidator().Validate(context.Background(), decode(t, doc))
	require.Len(t, res.Errors, 2)
	assert.Equal(t, domain.CodeMissingType, res.Errors[0].Code)
	assert.Equal(t, "layout.rows[0].columns[0].modules[0].modules[0]", res.Errors[0].Path)
	assert.Equal(t, domain.CodeUnknownType, res.Errors[1].Code)
	assert.Equal(t, "layout.rows[0].columns[0].modules[1]", res.Errors[1].Path)
	assert.Equal(t, []string{"t1", "t4"}, res.Config.Layout.ModuleIDs())
}

func TestValidate_InvalidModuleWarnsOnEveryPass(t *testing.T) {
	doc := `{"type": "custom:ultra-card", "layout": {"rows": [
		{"id": "r1", "column_layout": "1-col", "columns": [{"id": "c1", "modules": [
			{"id": "t1", "type": "text", "alignment": "diagonal"}
		]}]}
	]}}`

	v := newValidator()
	first := v.Validate(context.Background(), decode(t, doc))
	second := v.Validate(context.Background(), first.Config)
	assert.Equal(t, first.Config, second.Config)
	assert.Equal(t, []string{domain.CodeInvalidModule}, codes(second.Warnings))
}

func TestValidate_InvalidModuleKeptWithWarning(t *testing.T) {
	doc := `{"type": "custom:ultra-card", "layout": {"rows": [
		{"id": "r1", "column_layout": "1-col", "columns": [{"id": "c1", "modules": [
			{"id": "t1", "type": "text", "alignment": "diagonal"}
		]}]}
	]}}`

	res := newValidator().Validate(context.Background(), decode(t, doc))
	assert.True(t, res.Valid, "module-level failures are warnings")
	assert.Equal(t, []string{domain.CodeInvalidModule}, codes(res.Warnings))
	m := res.Config.Layout.Rows[0].Columns[0].Modules[0]
	assert.NotContains(t, m.Fields, "font_size", "defaults are not merged into invalid modules")
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	cfg := decode(t, messy)
	before, err := json.Marshal(cfg)
	require.NoError(t, err)

	newValidator().Validate(context.Background(), cfg)

	after, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestValidate_Hooks(t *testing.T) {
	var got *domain.ValidationEvent
	v := newValidator(validator.WithHooks(domain.LifecycleHooks{
		OnValidate: func(_ context.Context, e *domain.ValidationEvent) { got = e },
	}))

	v.Validate(context.Background(), decode(t, messy))
	require.NotNil(t, got)
	assert.False(t, got.Valid)
	assert.Equal(t, 3, got.Errors)
}

func TestMerge(t *testing.T) {
	base := map[string]any{"a": 1.0, "nested": map[string]any{"x": 1.0, "y": 2.0}, "list": []any{1.0}}
	over := map[string]any{"nested": map[string]any{"y": 3.0}, "list": []any{}, "b": "new"}

	got := validator.Merge(base, over)
	assert.Equal(t, map[string]any{
		"a":      1.0,
		"b":      "new",
		"nested": map[string]any{"x": 1.0, "y": 3.0},
		"list":   []any{},
	}, got)
	assert.Equal(t, 2.0, base["nested"].(map[string]any)["y"], "base untouched")
	assert.Nil(t, validator.Merge(nil, nil))
}
