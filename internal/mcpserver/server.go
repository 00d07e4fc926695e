// Package mcpserver exposes the search engine as an MCP tool over stdio so
// agent clients can call search_tours directly.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/alex-user-go/tours/internal/handler"
)

// Run serves the MCP stdio transport until the client disconnects.
func Run(searcher handler.Searcher, version string, logger *zap.Logger) error {
	s := server.NewMCPServer("eto-tours", version)

	tool := mcp.NewTool("search_tours",
		mcp.WithDescription(
			"Search packaged tours. country and city_from are best given as names "+
				"(e.g. \"Египет\", \"Москва\"); submits the search and polls until "+
				"priced results appear."),
		mcp.WithString("date_from", mcp.Description("Travel date from, YYYY-MM-DD")),
		mcp.WithString("date_to", mcp.Description("Travel date to, YYYY-MM-DD")),
		mcp.WithNumber("nights", mcp.Description("Number of nights (sets both bounds)")),
		mcp.WithNumber("adults", mcp.Description("Number of adults")),
		mcp.WithString("country", mcp.Description("Destination country name or id")),
		mcp.WithString("city_from", mcp.Description("Departure city name or id")),
		mcp.WithString("referrer", mcp.Description("Upstream referrer token")),
		mcp.WithString("session", mcp.Description("Upstream session token")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tours to return")),
		mcp.WithString("requestid", mcp.Description("Existing request id to resume polling")),
		mcp.WithBoolean("unique_hotels", mcp.Description("Keep only the cheapest tour per hotel")),
		mcp.WithBoolean("refresh_hotels", mcp.Description("Force-refresh the hotel catalog")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		result, err := searcher.SearchTours(ctx, args)
		if err != nil {
			logger.Info("tool call finished without tours", zap.Error(err))
			body, _ := json.Marshal(map[string]any{"success": false, "error": err.Error()})
			return mcp.NewToolResultText(string(body)), nil
		}
		body, err := json.MarshalIndent(result.Tours, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	})

	logger.Info("serving MCP over stdio")
	return server.ServeStdio(s)
}
