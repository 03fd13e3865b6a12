package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/actionstat/core"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// requestConfig clones the base config and applies the target and window
// parameters shared by both tools.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	cfg.Owner = request.GetString("owner", "")
	cfg.Repo = request.GetString("repo", "")
	cfg.WorkflowID = request.GetString("workflow", "")
	if b := request.GetString("branch", ""); b != "" {
		cfg.Branch = b
	}

	weeks := request.GetInt("weeks", contract.DefaultWeeks)
	if weeks <= 0 {
		weeks = contract.DefaultWeeks
	}
	cfg.EndTime = time.Now().UTC()
	cfg.StartTime = cfg.EndTime.AddDate(0, 0, -7*weeks)
	return cfg
}

func (h *toolHandler) handleFetchWorkflowRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)

	result, err := core.GetFetchResult(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetWorkflowReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)

	result, err := core.GetReportResult(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
