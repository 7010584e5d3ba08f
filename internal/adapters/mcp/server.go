// Package mcp exposes the engine to AI agents over the Model Context
// Protocol, on stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	cicerone "github.com/cicerone-chat/cicerone"
	"github.com/cicerone-chat/cicerone/internal/logging"
	"github.com/cicerone-chat/cicerone/internal/runtime"
)

// Server wraps the engine facade as an MCP server.
type Server struct {
	engine    *cicerone.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates an MCP server over the engine.
func NewServer(engine *cicerone.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cicerone-mcp", cicerone.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and blocks until the
// context is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{Addr: addr, Handler: mux}
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
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
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SelectResponse is what the select tool returns to the agent.
type SelectResponse struct {
	Reply *runtime.Reply `json:"reply" jsonschema_description:"Message, next options and declared action"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_definitions",
		mcp.WithDescription("List the IDs of the stored scenario definitions."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("import_graph",
		mcp.WithDescription("Compile a graph-editor scenario document and store it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Scenario name")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Graph document JSON")),
	), s.handleImportGraph)

	selectTool := mcp.NewTool("select",
		mcp.WithDescription("Advance a chat session: evaluate a node selection (a compiled id or \"restart\") against a stored definition."),
		mcp.WithString("definition_id", mcp.Required(), mcp.Description("Stored definition ID")),
		mcp.WithString("selection", mcp.Required(), mcp.Description("Compiled node id, or \"restart\"")),
		mcp.WithString("session_id", mcp.Description("Chat session ID (optional)")),
		mcp.WithOutputSchema[SelectResponse](),
	)
	s.mcpServer.AddTool(selectTool, mcp.NewStructuredToolHandler(s.handleSelect))
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.engine.Definitions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	payload, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleImportGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	document := request.GetString("document", "")
	res, err := s.engine.ImportGraph(ctx, name, []byte(document))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	payload, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleSelect(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SelectResponse, error) {
	definitionID, _ := args["definition_id"].(string)
	selection, _ := args["selection"].(string)
	sessionID, _ := args["session_id"].(string)

	reply, err := s.engine.Select(ctx, definitionID, selection, sessionID)
	if err != nil {
		s.logger.Warn("mcp select failed", "definition", definitionID, "err", err)
		return SelectResponse{}, fmt.Errorf("select failed: %w", err)
	}
	return SelectResponse{Reply: reply}, nil
}
