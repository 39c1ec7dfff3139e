// Package mcpserver exposes the research service as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/internal/store"
	"github.com/mohammad-safakhou/askcampus/models"
	"go.uber.org/zap"
)

type Service interface {
	Ask(ctx context.Context, query string, opts app.AskOptions) (app.Answer, error)
	Get(ctx context.Context, id string) (models.ResearchResult, error)
}

type Server struct {
	mcpServer *server.MCPServer
	svc       Service
	logger    *zap.Logger
}

func New(svc Service, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}
	s.mcpServer = server.NewMCPServer("askcampus", version, server.WithLogging())
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("research",
		mcp.WithDescription("Answer a question about the university from its own web pages, with numbered source citations"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question")),
		mcp.WithNumber("threshold", mcp.Description("Minimum relevance score in [0,1] (default from config)")),
		mcp.WithNumber("max_pages", mcp.Description("Maximum pages to extract (default from config)")),
	), s.handleResearch)

	s.mcpServer.AddTool(mcp.NewTool("get_research",
		mcp.WithDescription("Fetch a previously saved research run by id"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run id returned by research")),
	), s.handleGet)
}

func (s *Server) handleResearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	opts := app.AskOptions{MaxPages: req.GetInt("max_pages", 0)}
	if _, ok := req.GetArguments()["threshold"]; ok {
		t := req.GetFloat("threshold", 0)
		opts.Threshold = &t
	}
	if err := opts.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ans, err := s.svc.Ask(ctx, query, opts)
	if err != nil {
		s.logger.Error("research tool failed", zap.String("query", query), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("research failed: %v", err)), nil
	}
	return mcp.NewToolResultText(Render(ans.Result)), nil
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	r, err := s.svc.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError("no research run with id " + id), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(Render(r)), nil
}

// Render formats a run as the answer followed by its numbered sources.
func Render(r models.ResearchResult) string {
	var b strings.Builder
	b.WriteString(r.FinalAnswer)
	if len(r.Sources) > 0 {
		b.WriteString("\n\nSources:\n")
		b.WriteString(strings.Join(helpers.FormatSources(r.Sources), "\n"))
	}
	fmt.Fprintf(&b, "\n\n(run %s, state %s)", r.ID, r.State)
	return b.String()
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
