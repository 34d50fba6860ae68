package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/session"
)

const cardYAML = `
type: custom:ultra-card
layout:
  rows:
    - id: r1
      columns:
        - id: c1
          modules:
            - id: t1
              type: text
              text: Hi
`

func newServer(t *testing.T, withCards bool) (*Server, *session.Manager) {
	t.Helper()
	sess := ultracard.New(ultracard.WithIDGenerator(ids.NewSequence()))
	t.Cleanup(sess.Close)
	var opts []Option
	var cards *session.Manager
	if withCards {
		cards = session.NewManager(memory.NewStore(), sess.Editor(), sess.Validator())
		opts = append(opts, WithCards(cards))
	}
	return NewServer(sess, opts...), cards
}

func TestValidateCard(t *testing.T) {
	s, _ := newServer(t, false)
	ctx := context.Background()

	res, err := s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{"card": cardYAML})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "t1", res.Config.Layout.Rows[0].Columns[0].Modules[0].ID)

	_, err = s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorContains(t, err, "card is required")

	_, err = s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{"card": "{oops"})
	assert.Error(t, err)
}

func TestSearchModules(t *testing.T) {
	s, _ := newServer(t, false)

	res, err := s.handleSearch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"query": "progress"})
	require.NoError(t, err)
	var types []domain.ModuleType
	for _, m := range res.Modules {
		types = append(types, m.Type)
	}
	assert.Contains(t, types, domain.ModuleType("bar"))
	assert.NotContains(t, types, domain.ModuleType("text"))

	all, err := s.handleSearch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Greater(t, len(all.Modules), len(res.Modules))
}

func TestPlanCard(t *testing.T) {
	s, _ := newServer(t, false)

	res, err := s.handlePlan(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"card": cardYAML})
	require.NoError(t, err)
	assert.True(t, res.Validation.Valid)
	mods := res.Plan.Rows[0].Columns[0].Modules
	require.Len(t, mods, 1)
	assert.True(t, mods[0].Visible)
	require.NotNil(t, mods[0].Preview)
	assert.Equal(t, "Hi", mods[0].Preview.Markdown)
}

func TestApplyOperation_Inline(t *testing.T) {
	s, _ := newServer(t, false)
	ctx := context.Background()

	op, _ := json.Marshal(layout.Operation{Op: layout.OpAddModule, Type: "bar"})
	res, err := s.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"card":      cardYAML,
		"operation": string(op),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Outcome.Inserted)
	mods := res.Card.Layout.Rows[0].Columns[0].Modules
	require.Len(t, mods, 2)
	assert.Equal(t, domain.ModuleType("bar"), mods[1].Type)

	_, err = s.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"card":      cardYAML,
		"operation": `{"op": "delete_row"}`,
	})
	assert.ErrorContains(t, err, "apply failed")

	_, err = s.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{"card": cardYAML, "operation": "nope"})
	assert.ErrorContains(t, err, "invalid operation")
}

func TestApplyOperation_Stored(t *testing.T) {
	ctx := context.Background()

	bare, _ := newServer(t, false)
	_, err := bare.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"card_id":   "kitchen",
		"operation": `{"op": "add_row"}`,
	})
	assert.ErrorContains(t, err, "no card store configured")

	_, err = bare.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{"operation": `{"op": "add_row"}`})
	assert.ErrorContains(t, err, "card_id is required")

	s, cards := newServer(t, true)
	_, err = cards.LoadOrCreate(ctx, "kitchen")
	require.NoError(t, err)

	res, err := s.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"card_id":   "kitchen",
		"operation": `{"op": "add_row"}`,
	})
	require.NoError(t, err)
	assert.Len(t, res.Card.Layout.Rows, 2)
	require.NotNil(t, res.Outcome.Diff)

	stored, err := cards.Load(ctx, "kitchen")
	require.NoError(t, err)
	assert.Len(t, stored.Layout.Rows, 2)

	_, err = s.handleApply(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"card_id":   "missing",
		"operation": `{"op": "add_row"}`,
	})
	assert.Error(t, err)
}

func TestToolsRegistered(t *testing.T) {
	s, _ := newServer(t, true)
	ctx := context.Background()

	initResp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`))
	require.NotNil(t, initResp)

	resp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"validate_card", "search_modules", "plan_card", "apply_operation"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}
