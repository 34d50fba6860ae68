package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Success(t *testing.T) {
	fields := Fields{
		"text":      Required(String()),
		"font_size": Optional(Number()),
		"bold":      Optional(Bool()),
		"align":     Optional(Enum("left", "center", "right")),
		"tags":      Optional(Slice(String())),
		"style":     Optional(Object()),
	}

	data := map[string]any{
		"text":      "hello",
		"font_size": float64(14),
		"bold":      true,
		"align":     "center",
		"tags":      []any{"a", "b"},
		"style":     map[string]any{"color": "red"},
	}
	data["undeclared"] = 42

	assert.NoError(t, Validate(fields, data))
}

func TestValidate_CollectsAllFailuresInKeyOrder(t *testing.T) {
	fields := Fields{
		"text":  Required(String()),
		"align": Optional(Enum("left", "right")),
		"size":  Optional(Number()),
	}

	err := Validate(fields, map[string]any{"align": "middle", "size": "big"})
	require.Error(t, err)

	errs := Problems(err)
	require.Len(t, errs, 3)
	keys := make([]string, len(errs))
	for i, e := range errs {
		keys[i] = e.Setting
	}
	assert.Equal(t, []string{"align", "size", "text"}, keys)
	assert.Equal(t, "middle", errs[0].Value)
	assert.ErrorIs(t, err, ErrRequired, "text is missing")
	assert.Equal(t,
		`setting "align": must be one of left, right; setting "size": expected number, got string; setting "text" is required`,
		err.Error())

	var one *SettingError
	require.ErrorAs(t, err, &one)
	assert.Equal(t, "align", one.Setting)
}

func TestProblems_ForeignError(t *testing.T) {
	assert.Nil(t, Problems(assert.AnError))
	assert.Nil(t, Problems(nil))
}

func TestValidate_OptionalNilIsAbsent(t *testing.T) {
	fields := Fields{"icon": Optional(String())}
	assert.NoError(t, Validate(fields, map[string]any{"icon": nil}))
	assert.NoError(t, Validate(fields, nil))
}

func TestSlice_ReportsElement(t *testing.T) {
	err := Slice(Number()).Validate([]any{1.0, "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element 1")
}

func TestCustom(t *testing.T) {
	positive := Custom("positive", func(v any) error {
		if f, ok := v.(float64); ok && f > 0 {
			return nil
		}
		return assert.AnError
	})
	assert.Equal(t, "positive", positive.Name())
	assert.NoError(t, positive.Validate(2.0))
	assert.Error(t, positive.Validate(-1.0))
}
