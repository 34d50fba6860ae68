package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/domain"
)

func TestProvider_State(t *testing.T) {
	p := memory.NewProvider()
	_, ok := p.State("light.a")
	assert.False(t, ok)

	attrs := map[string]any{"brightness": 200.0}
	p.SetState("light.a", "on", attrs)
	attrs["brightness"] = 1.0

	s, ok := p.State("light.a")
	require.True(t, ok)
	assert.Equal(t, "on", s.State)
	assert.Equal(t, 200.0, s.Attributes["brightness"], "stored state is isolated from the caller")

	p.Remove("light.a")
	_, ok = p.State("light.a")
	assert.False(t, ok)
}

func TestProvider_LoadStates(t *testing.T) {
	p, err := memory.LoadStates([]byte(`{"sensor.x": {"state": "15", "attributes": {"unit": "C"}}}`))
	require.NoError(t, err)
	s, ok := p.State("sensor.x")
	require.True(t, ok)
	assert.Equal(t, "15", s.State)

	_, err = memory.LoadStates([]byte(`[1]`))
	assert.Error(t, err)
}

func TestProvider_LoadStatesYAML(t *testing.T) {
	p, err := memory.LoadStates([]byte(`
sensor.x:
  state: 15
  attributes:
    unit: C
light.kitchen:
  state: "on"
binary_sensor.door:
  state: false
`))
	require.NoError(t, err)

	s, ok := p.State("sensor.x")
	require.True(t, ok)
	assert.Equal(t, "15", s.State)
	assert.Equal(t, "C", s.Attributes["unit"])

	s, _ = p.State("light.kitchen")
	assert.Equal(t, "on", s.State)
	s, _ = p.State("binary_sensor.door")
	assert.Equal(t, "false", s.State)

	_, err = memory.LoadStates([]byte("- just\n- a list\n"))
	assert.Error(t, err)
}

func TestProvider_RenderTemplate(t *testing.T) {
	p := memory.NewProvider(memory.WithStates(map[string]domain.EntityState{
		"sensor.x": {State: "15"},
		"light.a":  {State: "on", Attributes: map[string]any{"brightness": 180.0}},
	}))
	ctx := context.Background()

	tests := []struct {
		expr string
		want string
	}{
		{`{{ states "sensor.x" }}`, "15"},
		{`{{ states "sensor.missing" }}`, "unknown"},
		{`{{ gt (float (states "sensor.x")) 10.0 }}`, "true"},
		{`{{ is_state "light.a" "off" }}`, "false"},
		{`{{ int (state_attr "light.a" "brightness") }}`, "180"},
		{`  on  `, "on"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := p.RenderTemplate(ctx, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.RenderTemplate(ctx, `{{ if }}`)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.RenderTemplate(cancelled, `x`)
	assert.ErrorIs(t, err, context.Canceled)
}

type recorder struct {
	mu      sync.Mutex
	updates []string
}

func (r *recorder) update(raw string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		raw = "error"
	}
	r.updates = append(r.updates, raw)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.updates...)
}

func TestProvider_SubscribeTemplate(t *testing.T) {
	p := memory.NewProvider()
	p.SetState("light.a", "off", nil)
	ctx := context.Background()

	rec := &recorder{}
	unsub, err := p.SubscribeTemplate(ctx, `{{ is_state "light.a" "on" }}`, rec.update)
	require.NoError(t, err)
	assert.Equal(t, []string{"false"}, rec.all(), "initial rendering is delivered immediately")

	p.SetState("light.b", "on", nil)
	assert.Equal(t, []string{"false"}, rec.all(), "unchanged output is not re-sent")

	p.SetState("light.a", "on", nil)
	assert.Equal(t, []string{"false", "true"}, rec.all())
	assert.Equal(t, 1, p.Subscriptions())

	require.NoError(t, unsub())
	require.NoError(t, unsub())
	assert.Equal(t, 0, p.Subscriptions())

	p.SetState("light.a", "off", nil)
	assert.Equal(t, []string{"false", "true"}, rec.all())

	_, err = p.SubscribeTemplate(ctx, `{{ end }}`, rec.update)
	assert.Error(t, err, "unparseable templates are refused")
}
