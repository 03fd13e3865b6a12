package mcp_test

import (
	"context"
	"testing"

	"github.com/huangsam/actionstat/internal/contract"
	mcp_internal "github.com/huangsam/actionstat/internal/mcp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	baseCfg := &contract.Config{}

	s := mcp_internal.NewMCPServer(baseCfg)

	ctx := context.Background()

	t.Run("fetch_workflow_runs missing token", func(t *testing.T) {
		tool := s.GetTool("fetch_workflow_runs")
		require.NotNil(t, tool, "Tool fetch_workflow_runs should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "fetch_workflow_runs",
				Arguments: map[string]any{
					"owner":    "octocat",
					"repo":     "hello-world",
					"workflow": "ci.yml",
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "token not provided")
	})

	t.Run("get_workflow_report missing workflow", func(t *testing.T) {
		tool := s.GetTool("get_workflow_report")
		require.NotNil(t, tool, "Tool get_workflow_report should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "get_workflow_report",
				Arguments: map[string]any{
					"owner": "octocat",
					"repo":  "hello-world",
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "--workflow is required")
	})
}
