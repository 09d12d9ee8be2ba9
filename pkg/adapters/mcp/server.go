// Package mcp exposes the engine as an MCP server, so agent frameworks can
// drive tutoring sessions through tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/parleylabs/parley"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
)

// TurnResponse is the unified structured result across the turn tools.
type TurnResponse struct {
	State  *domain.State            `json:"state" jsonschema_description:"The session state after the operation"`
	Result *domain.TransitionResult `json:"result,omitempty" jsonschema_description:"Transition outcome and side effects"`
	Report *domain.Report           `json:"report,omitempty" jsonschema_description:"End-of-session summary report"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	Start(ctx context.Context, sessionID string) (*domain.State, error)
	Get(ctx context.Context, sessionID string) (*domain.State, error)
	Advance(ctx context.Context, sessionID string, verdict domain.Verdict) (*domain.State, *domain.TransitionResult, error)
	AdvanceText(ctx context.Context, sessionID string, window []string) (*domain.State, *domain.TransitionResult, error)
	End(ctx context.Context, sessionID string) (*domain.State, *domain.Report, error)
	Graph() *graph.Graph
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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
		slog.Info("MCP server listening (SSE)", "address", addr)
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: start_session
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a tutoring session at the agent's entry context. Generates a session ID if none is given."),
		mcp.WithString("session_id", mcp.Description("Session ID to pin (optional, e.g. the telephony call ID)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: advance
	advanceTool := mcp.NewTool("advance",
		mcp.WithDescription("Advance a session by one turn: report the completion verdict and an optional declared target."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithBoolean("complete", mcp.Description("Whether the current step's completion criterion is satisfied")),
		mcp.WithString("target_context", mcp.Description("Requested context switch target (optional)")),
		mcp.WithString("target_step", mcp.Description("Requested step advance target (optional)")),
		mcp.WithString("window", mcp.Description("JSON array of recent transcript lines; used with the oracle when 'complete' is omitted")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(advanceTool, mcp.NewStructuredToolHandler(s.handleAdvance))

	// TOOL: get_state
	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.handleGetState))

	// TOOL: end_session
	endTool := mcp.NewTool("end_session",
		mcp.WithDescription("End a session and dispatch its summary report."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(endTool, mcp.NewStructuredToolHandler(s.handleEnd))

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full context graph for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Graph().Contexts())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)

	state, err := s.engine.Start(ctx, sessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return TurnResponse{State: state}, nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)

	var state *domain.State
	var result *domain.TransitionResult
	var err error

	if complete, ok := args["complete"].(bool); ok {
		verdict := domain.Verdict{Complete: complete}
		targetContext, _ := args["target_context"].(string)
		targetStep, _ := args["target_step"].(string)
		if targetContext != "" || targetStep != "" {
			verdict.Target = &domain.Target{Context: targetContext, Step: targetStep}
		}
		state, result, err = s.engine.Advance(ctx, sessionID, verdict)
	} else {
		var window []string
		if windowStr, ok := args["window"].(string); ok {
			_ = json.Unmarshal([]byte(windowStr), &window)
		}
		state, result, err = s.engine.AdvanceText(ctx, sessionID, window)
	}
	if err != nil {
		return TurnResponse{}, fmt.Errorf("advance failed: %w", err)
	}

	return TurnResponse{State: state, Result: result}, nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)

	state, err := s.engine.Get(ctx, sessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("get failed: %w", err)
	}
	return TurnResponse{State: state}, nil
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)

	state, report, err := s.engine.End(ctx, sessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("end failed: %w", err)
	}
	return TurnResponse{State: state, Report: report}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: parley://graph
	s.mcpServer.AddResource(mcp.NewResource("parley://graph", "Current Context Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Graph().Contexts())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal graph: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "parley://graph",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
