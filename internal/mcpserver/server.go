// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the execution service's GTD tools for LLM integration via stdio
// transport. All tools operate on behalf of a single configured user.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/store"
)

// Server wraps the MCP server with GTD tools.
type Server struct {
	mcp    *server.MCPServer
	store  *store.Store
	userID string
}

// New creates a new MCP server with all tools registered. userID scopes
// every operation.
func New(st *store.Store, userID string) *Server {
	s := &Server{store: st, userID: userID}

	s.mcp = server.NewMCPServer(
		"Execution Service",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects, optionally filtered by folder (active, incubator, completed, descoped) or area."),
		mcp.WithString("folder", mcp.Description("Optional folder filter")),
		mcp.WithString("area", mcp.Description("Optional area filter")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List next actions, optionally filtered by GTD context (e.g. @macbook), project slug, or state."),
		mcp.WithString("context", mcp.Description("Optional context filter, e.g. @home")),
		mcp.WithString("project", mcp.Description("Optional project slug filter")),
		mcp.WithString("state", mcp.Description("Optional state filter (next, waiting, deferred, incubating, completed)")),
	), s.listActions)

	s.mcp.AddTool(mcp.NewTool("create_action",
		mcp.WithDescription("Create a next action, optionally attached to a project."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Action text")),
		mcp.WithString("context", mcp.Description("GTD context, e.g. @macbook")),
		mcp.WithString("project", mcp.Description("Project slug to attach the action to")),
	), s.createAction)

	s.mcp.AddTool(mcp.NewTool("complete_action",
		mcp.WithDescription("Mark an action completed as of today."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Action ID")),
	), s.completeAction)

	s.mcp.AddTool(mcp.NewTool("start_timer",
		mcp.WithDescription("Start a timer on a project. Fails if a timer is already running."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("description", mcp.Description("What the time is being spent on")),
	), s.startTimer)

	s.mcp.AddTool(mcp.NewTool("stop_timer",
		mcp.WithDescription("Stop the running timer and record its duration."),
	), s.stopTimer)

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

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx, s.userID, store.ProjectFilter{
		Folder: req.GetString("folder", ""),
		Area:   req.GetString("area", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(projects), nil
}

func (s *Server) listActions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actions, err := s.store.ListActions(ctx, s.userID, store.ActionFilter{
		Context:     req.GetString("context", ""),
		ProjectSlug: req.GetString("project", ""),
		State:       req.GetString("state", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(actions), nil
}

func (s *Server) createAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := s.store.CreateAction(ctx, s.userID, models.ActionCreate{
		Text:        text,
		Context:     req.GetString("context", ""),
		ProjectSlug: req.GetString("project", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(action), nil
}

func (s *Server) completeAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := s.store.CompleteAction(ctx, s.userID, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(action), nil
}

func (s *Server) startTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.store.StartTimer(ctx, s.userID, project, req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry), nil
}

func (s *Server) stopTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry, err := s.store.StopTimer(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry), nil
}
