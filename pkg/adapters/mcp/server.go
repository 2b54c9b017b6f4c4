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

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/gateway"
	"github.com/aretw0/citychat/pkg/graph"
	"github.com/aretw0/citychat/pkg/ports"
	"github.com/aretw0/citychat/pkg/runner"
	"github.com/aretw0/citychat/pkg/sensor"
	"github.com/aretw0/citychat/pkg/view"
)

const graphURI = "citychat://graph"

// ChatResponse is the structured result of the conversation tools.
type ChatResponse struct {
	View  view.View      `json:"view" jsonschema_description:"The complete widget state of the session"`
	Fresh []view.Message `json:"fresh,omitempty" jsonschema_description:"Messages added by this call"`
}

// Chat is the conversation surface the MCP server exposes. *citychat.Engine
// satisfies it.
type Chat interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, error)
	Send(ctx context.Context, sessionID, input string) (*domain.Session, error)
	Edit(ctx context.Context, sessionID string, index int, text string) (*domain.Session, error)
	Restart(ctx context.Context, sessionID string) (*domain.Session, error)
	Chart(ctx context.Context, sessionID string, index int) (*view.Chart, error)
	View(s *domain.Session) view.View
	Graph() *graph.Graph
	Gateway() ports.DataGateway
}

// Server wraps a Chat and exposes it as an MCP server.
type Server struct {
	chat      Chat
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(chat Chat, opts ...Option) *Server {
	s := &Server{
		chat:      chat,
		mcpServer: server.NewMCPServer("citychat-mcp", strings.TrimSpace(citychat.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
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

		s.logger.Info("Shutting down MCP server")
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

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("chat_start",
		mcp.WithDescription("Start a smart-city conversation, or resume it when the session ID is known."),
		mcp.WithString("session_id", mcp.Description("Session to resume (optional, a new one is created when omitted)")),
		mcp.WithOutputSchema[ChatResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("chat_send",
		mcp.WithDescription("Send an option number or a free-text question to a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by chat_start")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Option number or question")),
		mcp.WithOutputSchema[ChatResponse](),
	), mcp.NewStructuredToolHandler(s.handleSend))

	s.mcpServer.AddTool(mcp.NewTool("chat_edit",
		mcp.WithDescription("Rewrite an earlier user message and replay the conversation from it."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Index of the user message")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Replacement text")),
		mcp.WithOutputSchema[ChatResponse](),
	), mcp.NewStructuredToolHandler(s.handleEdit))

	s.mcpServer.AddTool(mcp.NewTool("chat_restart",
		mcp.WithDescription("Clear a conversation and start over at the main menu."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[ChatResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("chat_chart",
		mcp.WithDescription("Build the chart of an answer that offers a visualization."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Index of the bot message")),
	), s.handleChart)

	s.mcpServer.AddTool(mcp.NewTool("sensor_readings",
		mcp.WithDescription("Latest sensor readings filtered by identifiers, optionally reduced to one value per field."),
		mcp.WithString("building", mcp.Description("Building code, e.g. VN or TH")),
		mcp.WithString("vertical", mcp.Description("Vertical code, e.g. AQ or WE")),
		mcp.WithString("floor", mcp.Description("Floor code, e.g. 00")),
		mcp.WithString("node_id", mcp.Description("Exact node ID; the closest known node is used when it does not exist")),
		mcp.WithString("accumulator", mcp.Description("avg, max, min or mode (optional)")),
	), s.handleReadings)

	s.mcpServer.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Ask the smart-city backend a natural-language question."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question")),
	), s.handleAsk)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full conversation tree for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := s.graphJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChatResponse, error) {
	sessionID, _ := args["session_id"].(string)

	sess, err := s.chat.Start(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("start failed: %w", err)
	}
	v := s.chat.View(sess)
	return ChatResponse{View: v, Fresh: v.Messages}, nil
}

func (s *Server) handleSend(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChatResponse, error) {
	sessionID, _ := args["session_id"].(string)
	text, _ := args["text"].(string)

	clean, err := runner.SanitizeInput(text)
	if err != nil {
		s.logger.Warn("MCP Send: Input rejected", "err", err, "size", len(text))
		return ChatResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	return s.respond(ctx, sessionID, "send", func(ctx context.Context) (*domain.Session, error) {
		return s.chat.Send(ctx, sessionID, clean)
	})
}

func (s *Server) handleEdit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChatResponse, error) {
	sessionID, _ := args["session_id"].(string)
	text, _ := args["text"].(string)
	index, ok := intArg(args, "index")
	if !ok {
		return ChatResponse{}, errors.New("index must be a number")
	}

	clean, err := runner.SanitizeInput(text)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	return s.respond(ctx, sessionID, "edit", func(ctx context.Context) (*domain.Session, error) {
		return s.chat.Edit(ctx, sessionID, index, clean)
	})
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChatResponse, error) {
	sessionID, _ := args["session_id"].(string)

	resp, err := s.respond(ctx, sessionID, "restart", func(ctx context.Context) (*domain.Session, error) {
		return s.chat.Restart(ctx, sessionID)
	})
	// The new greeting can equal the old one, so the whole transcript is fresh.
	resp.Fresh = resp.View.Messages
	return resp, err
}

// respond runs a mutation and reports the messages it added. A shortened
// transcript (edit, restart) reports everything after the common prefix.
func (s *Server) respond(ctx context.Context, sessionID, op string, fn func(context.Context) (*domain.Session, error)) (ChatResponse, error) {
	before, err := s.chat.Start(ctx, sessionID)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%s failed: %w", op, err)
	}

	after, err := fn(ctx)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%s failed: %w", op, err)
	}

	from := len(before.Messages)
	if diff := domain.Diff(before, after); diff != nil && diff.Truncate != nil {
		from = *diff.Truncate
	}
	v := s.chat.View(after)
	return ChatResponse{View: v, Fresh: v.Messages[min(from, len(v.Messages)):]}, nil
}

func (s *Server) handleChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	index, ok := intArg(args, "index")
	if !ok {
		return mcp.NewToolResultError("index must be a number"), nil
	}

	chart, err := s.chat.Chart(ctx, sessionID, index)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chart unavailable: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(chart)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

type readingsResult struct {
	Criteria  []string         `json:"criteria,omitempty"`
	Notice    string           `json:"notice,omitempty"`
	Readings  []sensor.Reading `json:"readings"`
	Aggregate map[string]any   `json:"aggregate,omitempty"`
}

func (s *Server) handleReadings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	str := func(k string) string {
		v, _ := args[k].(string)
		return strings.TrimSpace(v)
	}

	criteria := gateway.Criteria{
		BuildingID: str("building"),
		VerticalID: str("vertical"),
		FloorID:    str("floor"),
		NodeID:     str("node_id"),
	}
	method := domain.Accumulator(str("accumulator"))
	if !method.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown accumulator %q", method)), nil
	}

	all, err := s.chat.Gateway().FetchLatestReadings(ctx)
	if err != nil {
		s.logger.Error("MCP Readings: Fetch failed", "err", err)
		return mcp.NewToolResultError("sensor readings are unavailable right now"), nil
	}

	filtered := gateway.FilterReadings(all, criteria)
	if len(filtered.Readings) == 0 {
		return mcp.NewToolResultText(criteria.NoDataMessage()), nil
	}

	res := readingsResult{
		Criteria: criteria.Labels(),
		Notice:   filtered.Notice,
		Readings: filtered.Readings,
	}
	if method != domain.AccumulatorNone {
		agg := sensor.Aggregate(filtered.Readings, method)
		res.Aggregate = make(map[string]any, agg.Len())
		for _, f := range agg.Fields {
			res.Aggregate[f.Key] = f.Value
		}
	}

	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, _ := request.GetArguments()["question"].(string)
	clean, err := runner.SanitizeInput(question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("input rejected: %v", err)), nil
	}
	if strings.TrimSpace(clean) == "" {
		return mcp.NewToolResultError("question must not be empty"), nil
	}
	return mcp.NewToolResultText(s.chat.Gateway().AskNaturalLanguage(ctx, clean)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Conversation Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := s.graphJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to inspect graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) graphJSON() ([]byte, error) {
	g := s.chat.Graph()
	return json.Marshal(map[string]any{
		"root":  g.Root(),
		"nodes": g.Nodes(),
	})
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), v == float64(int(v))
	case int:
		return v, true
	case string:
		var n int
		_, err := fmt.Sscanf(v, "%d", &n)
		return n, err == nil
	}
	return 0, false
}
