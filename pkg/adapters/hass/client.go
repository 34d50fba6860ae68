// Package hass implements ports.StateProvider against a Home-Assistant-style REST API.
//
// Entity states are served from a local cache filled by Refresh, so State never blocks
// on the network. Long-running hosts keep the cache current with Run. Templates are rendered remotely through POST /api/template; live
// subscriptions poll at a fixed interval and report only changed output.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ports"
)

// DefaultPollInterval is how often subscriptions re-render their template.
const DefaultPollInterval = 5 * time.Second

// DefaultRefreshInterval is how often Run reloads the state cache.
const DefaultRefreshInterval = 10 * time.Second

// Client talks to the REST API.
type Client struct {
	base     string
	token    string
	http     *http.Client
	interval time.Duration
	refresh  time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]domain.EntityState
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRefreshInterval overrides DefaultRefreshInterval.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refresh = d
		}
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the API rooted at baseURL, authenticated with a long-lived
// access token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     http.DefaultClient,
		interval: DefaultPollInterval,
		refresh:  DefaultRefreshInterval,
		logger:   logging.NewNop(),
		cache:    make(map[string]domain.EntityState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the cached state of an entity.
func (c *Client) State(entityID string) (domain.EntityState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.cache[entityID]
	return s, ok
}

// Refresh reloads the cache. With no IDs every entity is fetched in one request;
// otherwise each entity is fetched individually and entities the server does not know
// are evicted.
func (c *Client) Refresh(ctx context.Context, entityIDs ...string) error {
	if len(entityIDs) == 0 {
		body, _, err := c.do(ctx, http.MethodGet, "/api/states", nil)
		if err != nil {
			return err
		}
		fresh := make(map[string]domain.EntityState)
		gjson.ParseBytes(body).ForEach(func(_, v gjson.Result) bool {
			if id := v.Get("entity_id").String(); id != "" {
				fresh[id] = parseState(v)
			}
			return true
		})
		c.mu.Lock()
		c.cache = fresh
		c.mu.Unlock()
		return nil
	}

	for _, id := range entityIDs {
		body, status, err := c.do(ctx, http.MethodGet, "/api/states/"+url.PathEscape(id), nil)
		if status == http.StatusNotFound {
			c.mu.Lock()
			delete(c.cache, id)
			c.mu.Unlock()
			continue
		}
		if err != nil {
			return err
		}
		s := parseState(gjson.ParseBytes(body))
		c.mu.Lock()
		c.cache[id] = s
		c.mu.Unlock()
	}
	return nil
}

// Run reloads every entity state at the refresh interval until ctx is done. A failed
// reload is logged and the previous cache is kept.
func (c *Client) Run(ctx context.Context) {
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := c.Refresh(ctx)
		if ctx.Err() != nil {
			return
		}
		switch {
		case err != nil && !failing:
			c.logger.Warn("state refresh failed, serving cached states", "err", err)
			failing = true
		case err == nil && failing:
			c.logger.Info("state refresh recovered")
			failing = false
		}
	}
}

// RenderTemplate renders expr on the server.
func (c *Client) RenderTemplate(ctx context.Context, expr string) (string, error) {
	payload, err := json.Marshal(map[string]string{"template": expr})
	if err != nil {
		return "", err
	}
	body, _, err := c.do(ctx, http.MethodPost, "/api/template", payload)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// SubscribeTemplate renders expr once and then polls until the returned function is
// called or ctx is done. A failing first render refuses the subscription.
func (c *Client) SubscribeTemplate(ctx context.Context, expr string, onUpdate ports.TemplateUpdate) (ports.Unsubscribe, error) {
	raw, err := c.RenderTemplate(ctx, expr)
	if err != nil {
		return nil, err
	}
	onUpdate(raw, nil)

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		last, failed := raw, false
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
			}
			next, err := c.RenderTemplate(pollCtx, expr)
			if pollCtx.Err() != nil {
				return
			}
			if err != nil {
				if !failed {
					c.logger.Debug("template poll failed", "err", err)
					failed = true
					onUpdate("", err)
				}
				continue
			}
			if failed || next != last {
				failed, last = false, next
				onUpdate(next, nil)
			}
		}
	}()

	var once sync.Once
	return func() error {
		once.Do(func() {
			stop()
			cancel()
			<-done
		})
		return nil
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode/100 != 2 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return body, resp.StatusCode, nil
}

func parseState(v gjson.Result) domain.EntityState {
	s := domain.EntityState{State: v.Get("state").String()}
	if attrs, ok := v.Get("attributes").Value().(map[string]any); ok && len(attrs) > 0 {
		s.Attributes = attrs
	}
	return s
}
