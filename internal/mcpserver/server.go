// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the aggregator to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/matome/internal/api"
)

// Server wraps the MCP server with aggregation tools.
type Server struct {
	mcp *server.MCPServer
	svc *api.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *api.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Matome",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("run_aggregation",
		mcp.WithDescription("Aggregate all pending daily notes into their topic files "+
			"and archive the processed notes. Returns the run result including diagnostics."),
	), s.runAggregation)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List the labels of all accumulated topic files."),
	), s.listTopics)

	s.mcp.AddTool(mcp.NewTool("read_topic",
		mcp.WithDescription("Read the accumulated Markdown of one topic file."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Topic label (output file name without extension)")),
	), s.readTopic)

	s.mcp.AddTool(mcp.NewTool("run_history",
		mcp.WithDescription("List recent aggregation runs with their topics, archive counts, and diagnostics."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20)")),
	), s.runHistory)

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

func (s *Server) runAggregation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.TriggerRun(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	labels, err := s.svc.ListTopics(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(labels, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTopic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.ReadTopic(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) runHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	runs, err := s.svc.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
