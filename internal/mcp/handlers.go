package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hvergara/dona/internal/analysis"
)

// handleGetHistory returns recent turns for a user as formatted text.
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	channelID := request.GetString("channel_id", "")
	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	var maxAge time.Duration
	if hours := request.GetInt("hours", 0); hours > 0 {
		maxAge = time.Duration(hours) * time.Hour
	}

	turns, err := s.memory.History(ctx, userID, channelID, limit, maxAge)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	if len(turns) == 0 {
		return mcp.NewToolResultText("No conversation history found for this user."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation history for %s (%d turns):\n\n", userID, len(turns))
	for _, t := range turns {
		fmt.Fprintf(&b, "[%s] %s: %s\n", t.CreatedAt.Format("2006-01-02 15:04"), t.Role, t.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGetStats returns combined store and cache statistics as JSON.
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.memory.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats unavailable: %v", err)), nil
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleAnalyzeMessage runs the semantic analyzer over the given text.
func (s *Server) handleAnalyzeMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	result := analysis.AnalyzeMessage(text)
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleGetPreferences returns a user's effective preferences as JSON.
func (s *Server) handleGetPreferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	prefs, err := s.memory.Preferences(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preferences lookup failed: %v", err)), nil
	}
	out, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding preferences: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
