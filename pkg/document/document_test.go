package document_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/document"
	"github.com/aretw0/ultracard/pkg/domain"
)

const cardYAML = `
type: custom:ultra-card
card_padding: 12
view_layout:
  grid_area: main
layout:
  rows:
    - id: r1
      column_layout: 1-col
      gap: 8
      columns:
        - id: c1
          modules:
            - id: t1
              type: text
              text: Hello
              font_size: 18
              display_mode: every
              display_conditions:
                - id: cond1
                  type: entity_state
                  entity: sensor.x
                  operator: ">"
                  value: 10
            - id: h1
              type: horizontal
`

func TestDecodeYAML(t *testing.T) {
	cfg, err := document.Decode([]byte(cardYAML))
	require.NoError(t, err)

	assert.Equal(t, domain.CardType, cfg.Type)
	require.NotNil(t, cfg.CardPadding)
	assert.Equal(t, 12.0, *cfg.CardPadding)
	assert.Equal(t, map[string]any{"grid_area": "main"}, cfg.Extra["view_layout"])

	row := cfg.Layout.Rows[0]
	assert.Equal(t, 8.0, row.Style["gap"])

	m := row.Columns[0].Modules[0]
	assert.Equal(t, "Hello", m.Fields["text"])
	assert.Equal(t, 18.0, m.Fields["font_size"])
	assert.Equal(t, domain.DisplayEvery, m.DisplayMode)
	require.Len(t, m.DisplayConditions, 1)
	assert.Equal(t, "10", m.DisplayConditions[0].ValueString())
	assert.True(t, row.Columns[0].Modules[1].IsLayout())
}

func TestRoundTrip(t *testing.T) {
	cfg, err := document.Decode([]byte(cardYAML))
	require.NoError(t, err)

	asJSON, err := document.EncodeJSON(cfg)
	require.NoError(t, err)
	assert.Equal(t, document.FormatJSON, document.Detect(asJSON))
	assert.Contains(t, string(asJSON), `"modules": []`, "empty layout children are explicit")

	asYAML, err := document.EncodeYAML(cfg)
	require.NoError(t, err)
	assert.Equal(t, document.FormatYAML, document.Detect(asYAML))

	fromJSON, err := document.Decode(asJSON)
	require.NoError(t, err)
	fromYAML, err := document.Decode(asYAML)
	require.NoError(t, err)

	again, err := document.EncodeJSON(fromYAML)
	require.NoError(t, err)
	assert.JSONEq(t, string(asJSON), string(again))

	again, err = document.EncodeJSON(fromJSON)
	require.NoError(t, err)
	assert.Equal(t, string(asJSON), string(again), "encoding is deterministic")
}

func TestDecode_Errors(t *testing.T) {
	_, err := document.Decode([]byte(`{"type": `))
	assert.Error(t, err)
	_, err = document.Decode([]byte("- just\n- a list\n"))
	assert.Error(t, err)
	_, err = document.Decode([]byte(""))
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := domain.NewCard()

	for _, name := range []string{"card.json", "card.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, document.WriteFile(path, cfg))
		got, err := document.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, domain.CardType, got.Type)
		assert.NotNil(t, got.Layout.Rows)
	}
	assert.Equal(t, document.FormatJSON, document.FormatOf("x.JSON"))
	assert.Equal(t, document.FormatYAML, document.FormatOf("x.yml"))

	_, err := document.ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
