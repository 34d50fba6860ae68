package hass_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/adapters/hass"
)

// fakeHA serves a tiny subset of the REST API.
type fakeHA struct {
	mu         sync.Mutex
	states     map[string]string
	template   string
	fail       bool
	statesDown bool
	auth       string
}

func (f *fakeHA) set(fn func(*fakeHA)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeHA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = r.Header.Get("Authorization")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/states":
		if f.statesDown {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("["))
		first := true
		for _, body := range f.states {
			if !first {
				w.Write([]byte(","))
			}
			first = false
			w.Write([]byte(body))
		}
		w.Write([]byte("]"))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/states/"):
		body, ok := f.states[strings.TrimPrefix(r.URL.Path, "/api/states/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Entity not found."}`))
			return
		}
		w.Write([]byte(body))
	case r.Method == http.MethodPost && r.URL.Path == "/api/template":
		var req struct {
			Template string `json:"template"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if f.fail || req.Template == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "Error rendering template"}`))
			return
		}
		w.Write([]byte(f.template))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFake(t *testing.T) (*fakeHA, *httptest.Server) {
	t.Helper()
	f := &fakeHA{
		states: map[string]string{
			"light.a":  `{"entity_id": "light.a", "state": "on", "attributes": {"brightness": 180, "friendly_name": "A"}}`,
			"sensor.x": `{"entity_id": "sensor.x", "state": "15"}`,
		},
		template: "true",
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestClient_Refresh(t *testing.T) {
	f, srv := newFake(t)
	c := hass.New(srv.URL+"/", "secret")
	ctx := context.Background()

	_, ok := c.State("light.a")
	assert.False(t, ok, "cache starts empty")

	require.NoError(t, c.Refresh(ctx))
	s, ok := c.State("light.a")
	require.True(t, ok)
	assert.Equal(t, "on", s.State)
	assert.Equal(t, 180.0, s.Attributes["brightness"])
	assert.Equal(t, "Bearer secret", f.auth)

	x, ok := c.State("sensor.x")
	require.True(t, ok)
	assert.Nil(t, x.Attributes)

	f.set(func(f *fakeHA) {
		f.states["light.a"] = `{"entity_id": "light.a", "state": "off"}`
		delete(f.states, "sensor.x")
	})
	require.NoError(t, c.Refresh(ctx, "light.a", "sensor.x"))

	s, _ = c.State("light.a")
	assert.Equal(t, "off", s.State)
	_, ok = c.State("sensor.x")
	assert.False(t, ok, "unknown entities are evicted")
}

func TestClient_RenderTemplate(t *testing.T) {
	f, srv := newFake(t)
	c := hass.New(srv.URL, "")
	ctx := context.Background()

	f.set(func(f *fakeHA) { f.template = "  on\n" })
	raw, err := c.RenderTemplate(ctx, "{{ is_state('light.a', 'on') }}")
	require.NoError(t, err)
	assert.Equal(t, "on", raw)

	_, err = c.RenderTemplate(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400: Error rendering template")
}

func TestClient_SubscribeTemplate(t *testing.T) {
	f, srv := newFake(t)
	c := hass.New(srv.URL, "", hass.WithPollInterval(10*time.Millisecond))
	ctx := context.Background()

	var mu sync.Mutex
	var updates []string
	record := func(raw string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			raw = "error"
		}
		updates = append(updates, raw)
	}
	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), updates...)
	}

	unsub, err := c.SubscribeTemplate(ctx, "expr", record)
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, seen())

	f.set(func(f *fakeHA) { f.template = "false" })
	assert.Eventually(t, func() bool {
		return len(seen()) == 2
	}, time.Second, 5*time.Millisecond)

	f.set(func(f *fakeHA) { f.fail = true })
	assert.Eventually(t, func() bool {
		return len(seen()) == 3
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"true", "false", "error"}, seen(), "repeated output is reported once")

	require.NoError(t, unsub())
	require.NoError(t, unsub())

	f.set(func(f *fakeHA) { f.fail, f.template = false, "true" })
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, seen(), 3, "no updates after unsubscribe")
}

func TestClient_SubscribeRefused(t *testing.T) {
	_, srv := newFake(t)
	c := hass.New(srv.URL, "")

	_, err := c.SubscribeTemplate(context.Background(), "bad", func(string, error) {
		t.Error("no update expected")
	})
	assert.Error(t, err)
}

func TestClient_SubscribeStopsWithContext(t *testing.T) {
	f, srv := newFake(t)
	c := hass.New(srv.URL, "", hass.WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	count := 0
	_, err := c.SubscribeTemplate(ctx, "expr", func(string, error) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)
	cancel()
	time.Sleep(30 * time.Millisecond)

	f.set(func(f *fakeHA) { f.template = "changed" })
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestClient_RunKeepsStatesCurrent(t *testing.T) {
	f, srv := newFake(t)
	c := hass.New(srv.URL, "", hass.WithRefreshInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, c.Refresh(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()

	f.set(func(f *fakeHA) {
		f.states["sensor.x"] = `{"entity_id": "sensor.x", "state": "22"}`
	})
	assert.Eventually(t, func() bool {
		s, _ := c.State("sensor.x")
		return s.State == "22"
	}, time.Second, 5*time.Millisecond)

	f.set(func(f *fakeHA) {
		f.statesDown = true
		f.states["sensor.x"] = `{"entity_id": "sensor.x", "state": "30"}`
	})
	time.Sleep(50 * time.Millisecond)
	s, ok := c.State("sensor.x")
	require.True(t, ok, "a failed refresh keeps the cache")
	assert.Equal(t, "22", s.State)

	f.set(func(f *fakeHA) { f.statesDown = false })
	assert.Eventually(t, func() bool {
		s, _ := c.State("sensor.x")
		return s.State == "30"
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
