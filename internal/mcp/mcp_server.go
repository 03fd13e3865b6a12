// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the actionstat MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Actionstat CI Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
	}

	// --- 1. Tool: fetch_workflow_runs ---
	s.AddTool(mcp.NewTool("fetch_workflow_runs",
		mcp.WithDescription("Fetch GitHub Actions workflow run history into local storage for analysis."),
		mcp.WithString("owner", mcp.Description("Repository owner or organization."), mcp.Required()),
		mcp.WithString("repo", mcp.Description("Repository name."), mcp.Required()),
		mcp.WithString("workflow", mcp.Description("Workflow file name (e.g. 'ci.yml') or numeric ID."), mcp.Required()),
		mcp.WithString("branch", mcp.Description("Restrict to a single branch.")),
		mcp.WithNumber("weeks", mcp.Description("Number of weeks to look back from now. Defaults to 4.")),
	), h.handleFetchWorkflowRuns)

	// --- 2. Tool: get_workflow_report ---
	s.AddTool(mcp.NewTool("get_workflow_report",
		mcp.WithDescription("Report weekly CI performance metrics (success rates, duration percentiles, flakiness) from stored workflow runs."),
		mcp.WithString("owner", mcp.Description("Repository owner or organization."), mcp.Required()),
		mcp.WithString("repo", mcp.Description("Repository name."), mcp.Required()),
		mcp.WithString("workflow", mcp.Description("Workflow file name (e.g. 'ci.yml') or numeric ID."), mcp.Required()),
		mcp.WithNumber("weeks", mcp.Description("Number of weeks to look back from now. Defaults to 4.")),
	), h.handleGetWorkflowReport)

	return s
}

// StartMCPServer starts the actionstat MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
