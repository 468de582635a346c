package mcp

import "github.com/mark3labs/mcp-go/mcp"

// getHistoryTool defines the get_conversation_history MCP tool.
var getHistoryTool = mcp.NewTool("get_conversation_history",
	mcp.WithDescription("Get recent conversation turns for a user, oldest first."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Platform user id"),
	),
	mcp.WithString("channel_id",
		mcp.Description("Narrow the history to one channel"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of turns to return (default 20)"),
	),
	mcp.WithNumber("hours",
		mcp.Description("Only include turns from the last N hours"),
	),
)

// getStatsTool defines the get_memory_stats MCP tool.
var getStatsTool = mcp.NewTool("get_memory_stats",
	mcp.WithDescription("Get conversation memory statistics: stored users and turns, active sessions, realtime counters."),
)

// analyzeMessageTool defines the analyze_message MCP tool.
var analyzeMessageTool = mcp.NewTool("analyze_message",
	mcp.WithDescription("Classify a message: topics, sentiment, intent, entities, urgency and complexity."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Message text to analyze"),
	),
)

// getPreferencesTool defines the get_user_preferences MCP tool.
var getPreferencesTool = mcp.NewTool("get_user_preferences",
	mcp.WithDescription("Get a user's stored preferences merged over the defaults."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Platform user id"),
	),
)
