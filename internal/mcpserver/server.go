// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Raido pipeline to agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/hooks"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp     *server.MCPServer
	runner  *hooks.Runner
	hist    history.Store
	command string
	timeout time.Duration
}

// New creates a new MCP server with all Raido tools registered.
// hist may be nil when history is disabled.
func New(runner *hooks.Runner, hist history.Store, command string, timeout time.Duration) *Server {
	s := &Server{runner: runner, hist: hist, command: command, timeout: timeout}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("pending_edits",
		mcp.WithDescription("Report whether any files were edited this session and are awaiting a build check."),
	), s.pendingEdits)

	s.mcp.AddTool(mcp.NewTool("run_check",
		mcp.WithDescription("Run the configured build command against the pending edit set and return the report. "+
			"Consumes the edit record; a session with no edits is skipped."),
	), s.runCheck)

	s.mcp.AddTool(mcp.NewTool("match_prompt",
		mcp.WithDescription("Evaluate a prompt against the configured skill rules and return the activated rule names."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Prompt text to evaluate")),
	), s.matchPrompt)

	s.mcp.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the configured skill rule names in configuration order."),
	), s.listRules)

	s.mcp.AddTool(mcp.NewTool("recent_checks",
		mcp.WithDescription("Return recent build check history, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of checks to return (default 10)")),
	), s.recentChecks)

	s.mcp.AddTool(mcp.NewTool("get_hooks_setup",
		mcp.WithDescription("Returns the canonical Raido hook registration contract. "+
			"Call this before wiring raido into a host configuration."),
	), s.getHooksSetup)

	// Resource: hook setup contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://hooks-setup", "Hook Setup Contract",
			mcp.WithResourceDescription("How a host registers the Raido lifecycle hooks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHooksSetupResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) pendingEdits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner.HasPending() {
		return mcp.NewToolResultText("edits pending: a build check will run at session end"), nil
	}
	return mcp.NewToolResultText("no edits pending"), nil
}

func (s *Server) runCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rendered := s.runner.SessionEnd(ctx, s.command, s.timeout)
	if rendered == "" {
		return mcp.NewToolResultText("skipped: no edits pending"), nil
	}
	return mcp.NewToolResultText(rendered), nil
}

func (s *Server) matchPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	act := s.runner.UserPrompt(prompt)
	if len(act.Rules) == 0 {
		return mcp.NewToolResultText("no rules activated"), nil
	}
	return mcp.NewToolResultText(strings.Join(act.Rules, "\n")), nil
}

func (s *Server) listRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.runner.RuleNames()
	if len(names) == 0 {
		return mcp.NewToolResultText("no rules configured"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) recentChecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.hist == nil {
		return mcp.NewToolResultError("history disabled"), nil
	}
	limit := 10
	if n, ok := req.GetArguments()["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	checks, err := s.hist.RecentChecks(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(checks) == 0 {
		return mcp.NewToolResultText("no checks recorded"), nil
	}
	out, _ := json.MarshalIndent(checks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getHooksSetup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(HooksSetupContract), nil
}

func (s *Server) readHooksSetupResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://hooks-setup",
			MIMEType: "text/markdown",
			Text:     HooksSetupContract,
		},
	}, nil
}
