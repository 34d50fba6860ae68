package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard"
	httpadapter "github.com/aretw0/ultracard/pkg/adapters/http"
	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/observability"
	"github.com/aretw0/ultracard/pkg/session"
	"github.com/aretw0/ultracard/pkg/validator"
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
            - type: text
            - id: bad
`

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	metrics := observability.NewMetrics()
	sess := ultracard.New(
		ultracard.WithIDGenerator(ids.NewSequence()),
		ultracard.WithLifecycleHooks(metrics.Hooks()),
	)
	t.Cleanup(sess.Close)
	cards := session.NewManager(memory.NewStore(), sess.Editor(), sess.Validator())
	return httpadapter.NewHandler(sess,
		httpadapter.WithCards(cards),
		httpadapter.WithMetrics(metrics.Handler()),
	)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"app":"ultracard-http"`)
	assert.Contains(t, w.Body.String(), `"change_column_layout"`)

	w = do(t, h, http.MethodOptions, "/validate", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidate(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodPost, "/validate", cardYAML)
	require.Equal(t, http.StatusOK, w.Code)

	var res validator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, domain.CodeMissingType, res.Errors[0].Code)
	assert.Len(t, res.Config.Layout.Rows[0].Columns[0].Modules, 2)

	w = do(t, h, http.MethodPost, "/validate", "{oops")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlan(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodPost, "/plan", cardYAML)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Plan ultracard.Plan `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	mods := body.Plan.Rows[0].Columns[0].Modules
	require.Len(t, mods, 2)
	assert.True(t, mods[0].Visible)
	assert.Equal(t, "Hi", mods[0].Preview.Markdown)
}

func TestPlan_TemplateModeOpensNoFeeds(t *testing.T) {
	provider := memory.NewProvider()
	provider.SetState("light.a", "off", nil)
	sess := ultracard.New(ultracard.WithStateProvider(provider))
	t.Cleanup(sess.Close)
	h := httpadapter.NewHandler(sess)

	card := `
type: custom:ultra-card
layout:
  rows:
    - columns:
        - modules:
            - type: text
              template_mode: true
              template: '{{ is_state "light.a" "on" }}'
`
	for range 20 {
		w := do(t, h, http.MethodPost, "/plan", card)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body struct {
			Plan ultracard.Plan `json:"plan"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Plan.Rows[0].Columns[0].Modules[0].Visible)
	}
	assert.Zero(t, provider.Subscriptions())
}

func TestModules(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodGet, "/modules?q=progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bar"`)
	assert.NotContains(t, w.Body.String(), `"text"`)
}

func TestCards(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodGet, "/cards/kitchen", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPut, "/cards/kitchen", cardYAML)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "structural errors are not stored")

	fixed := strings.Replace(cardYAML, "            - id: bad\n", "", 1)
	w = do(t, h, http.MethodPut, "/cards/kitchen", fixed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/cards", "")
	assert.JSONEq(t, `["kitchen"]`, w.Body.String())

	w = do(t, h, http.MethodGet, "/cards/kitchen", "")
	require.Equal(t, http.StatusOK, w.Code)
	var card domain.CardConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Len(t, card.Layout.Rows[0].Columns[0].Modules, 2)

	op, _ := json.Marshal(layout.Operation{Op: layout.OpAddModule, Type: "bar"})
	w = do(t, h, http.MethodPost, "/cards/kitchen/operations", string(op))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"inserted"`)

	op, _ = json.Marshal(layout.Operation{Op: layout.OpDeleteRow})
	w = do(t, h, http.MethodPost, "/cards/kitchen/operations", string(op))
	assert.Equal(t, http.StatusConflict, w.Code, "the last row cannot be deleted")

	w = do(t, h, http.MethodPost, "/cards/kitchen/operations", `{"op": "explode"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/cards/kitchen/operations", `{"op": "move", "source": {"kind": "module"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "a move without a target is a client error")

	w = do(t, h, http.MethodPost, "/cards/kitchen/operations", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/cards/missing/operations", `{"op": "add_row"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/cards/kitchen", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/cards/kitchen", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	h := newHandler(t)
	do(t, h, http.MethodPost, "/validate", cardYAML)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ultracard_validations_total{valid="false"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	h := newHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	fixed := strings.Replace(cardYAML, "            - id: bad\n", "", 1)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/cards/live", strings.NewReader(fixed))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/cards/live/events", nil)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		return ""
	}
	assert.Equal(t, "connected", next())

	op, _ := json.Marshal(layout.Operation{Op: layout.OpAddRow})
	resp, err = http.Post(srv.URL+"/cards/live/operations", "application/json", bytes.NewReader(op))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var diff domain.LayoutDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	assert.Len(t, diff.Added, 2, "a new row and its column")
}
