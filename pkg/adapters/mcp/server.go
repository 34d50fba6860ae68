// Package mcp exposes the card core as Model Context Protocol tools so agents can
// validate, search, plan and edit cards.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/document"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/session"
	"github.com/aretw0/ultracard/pkg/validator"
)

// ModulesResponse lists module types.
type ModulesResponse struct {
	Modules []registry.Metadata `json:"modules" jsonschema_description:"Registered module types matching the query"`
}

// PlanResponse pairs the validation of a card with its render plan.
type PlanResponse struct {
	Validation validator.Result `json:"validation" jsonschema_description:"Repairs and structural errors found in the card"`
	Plan       ultracard.Plan   `json:"plan" jsonschema_description:"Visibility and preview of every node"`
}

// OperationResponse is the card after a layout operation.
type OperationResponse struct {
	Card     domain.CardConfig   `json:"card" jsonschema_description:"The updated card document"`
	Warnings []domain.Diagnostic `json:"warnings,omitempty" jsonschema_description:"Repairs applied while validating the result"`
	Outcome  layout.Outcome      `json:"outcome" jsonschema_description:"Inserted module and layout diff"`
}

// Server wraps a card session and exposes it as an MCP Server.
type Server struct {
	session   *ultracard.Session
	cards     *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCards lets apply_operation edit stored cards by ID and exposes them as resources.
func WithCards(m *session.Manager) Option {
	return func(s *Server) {
		s.cards = m
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sess *ultracard.Session, opts ...Option) *Server {
	s := &Server{
		session:   sess,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("ultracard-mcp", strings.TrimSpace(ultracard.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. to mount it on a custom transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_card",
		mcp.WithDescription("Validate and repair a card document. Returns the corrected card with errors and warnings."),
		mcp.WithString("card", mcp.Required(), mcp.Description("Card document as JSON or YAML")),
		mcp.WithOutputSchema[validator.Result](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("search_modules",
		mcp.WithDescription("Search the registered module types by name, description, category or tag."),
		mcp.WithString("query", mcp.Description("Search term; empty lists every module")),
		mcp.WithOutputSchema[ModulesResponse](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	s.mcpServer.AddTool(mcp.NewTool("plan_card",
		mcp.WithDescription("Validate a card and decide the visibility, animation and preview of every node against current entity states."),
		mcp.WithString("card", mcp.Required(), mcp.Description("Card document as JSON or YAML")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlan))

	s.mcpServer.AddTool(mcp.NewTool("apply_operation",
		mcp.WithDescription("Apply a layout operation ("+strings.Join(layout.Operations(), ", ")+") to a card given inline or by stored card ID."),
		mcp.WithString("operation", mcp.Required(), mcp.Description(`JSON operation, e.g. {"op": "add_module", "row": 0, "column": 0, "type": "text"}`)),
		mcp.WithString("card", mcp.Description("Card document as JSON or YAML")),
		mcp.WithString("card_id", mcp.Description("ID of a stored card; used when card is omitted")),
		mcp.WithOutputSchema[OperationResponse](),
	), mcp.NewStructuredToolHandler(s.handleApply))
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (validator.Result, error) {
	cfg, err := decodeArg(args, "card")
	if err != nil {
		return validator.Result{}, err
	}
	return s.session.Validate(ctx, cfg), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ModulesResponse, error) {
	query, _ := args["query"].(string)
	return ModulesResponse{Modules: s.session.Registry().Search(query)}, nil
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlanResponse, error) {
	cfg, err := decodeArg(args, "card")
	if err != nil {
		return PlanResponse{}, err
	}
	res := s.session.Validate(ctx, cfg)
	return PlanResponse{Validation: res, Plan: s.session.Plan(ctx, res.Config, ultracard.Detached())}, nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (OperationResponse, error) {
	raw, _ := args["operation"].(string)
	var op layout.Operation
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return OperationResponse{}, fmt.Errorf("invalid operation: %w", err)
	}

	if _, inline := args["card"].(string); inline {
		cfg, err := decodeArg(args, "card")
		if err != nil {
			return OperationResponse{}, err
		}
		cfg = s.session.Validate(ctx, cfg).Config
		var outcome layout.Outcome
		cfg.Layout, outcome, err = s.session.Editor().Apply(ctx, cfg.Layout, op)
		if err != nil {
			return OperationResponse{}, fmt.Errorf("apply failed: %w", err)
		}
		res := s.session.Validate(ctx, cfg)
		return OperationResponse{Card: res.Config, Warnings: res.Warnings, Outcome: outcome}, nil
	}

	cardID, _ := args["card_id"].(string)
	if cardID == "" {
		return OperationResponse{}, errors.New("either card or card_id is required")
	}
	if s.cards == nil {
		return OperationResponse{}, errors.New("no card store configured")
	}
	res, outcome, err := s.cards.Apply(ctx, cardID, op)
	if err != nil {
		s.logger.Warn("MCP apply_operation failed", "card_id", cardID, "err", err)
		return OperationResponse{}, fmt.Errorf("apply failed: %w", err)
	}
	return OperationResponse{Card: res.Config, Warnings: res.Warnings, Outcome: outcome}, nil
}

func decodeArg(args map[string]interface{}, key string) (domain.CardConfig, error) {
	raw, _ := args[key].(string)
	if strings.TrimSpace(raw) == "" {
		return domain.CardConfig{}, fmt.Errorf("%s is required", key)
	}
	return document.Decode([]byte(raw))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("ultracard://modules", "Registered Module Types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.session.Registry().List())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "ultracard://modules",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	if s.cards == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource("ultracard://cards", "Stored Card IDs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.cards.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list cards: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "ultracard://cards",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
