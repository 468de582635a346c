package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hvergara/dona/internal/db"
	"github.com/hvergara/dona/internal/memory"
)

func setupTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := memory.NewStore(database, nil)
	return NewServer(memory.NewManager(store, nil)), store
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"get_conversation_history", getHistoryTool, "get_conversation_history"},
		{"get_memory_stats", getStatsTool, "get_memory_stats"},
		{"analyze_message", analyzeMessageTool, "analyze_message"},
		{"get_user_preferences", getPreferencesTool, "get_user_preferences"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, _ := setupTestServer(t)
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.memory == nil {
		t.Fatal("memory manager not set")
	}
}

func TestHandleGetHistory(t *testing.T) {
	srv, store := setupTestServer(t)
	ctx := context.Background()

	if _, err := store.AppendTurn(ctx, memory.Turn{
		UserID: "U123", ChannelID: "C1", Role: memory.RoleUser, Content: "hola dona",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	t.Run("existing user", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"user_id": "U123",
		}

		result, err := srv.handleGetHistory(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"user_id": "nobody",
		}

		result, err := srv.handleGetHistory(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty history should not be a tool error")
		}
	})

	t.Run("missing user_id", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleGetHistory(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing user_id")
		}
	})
}

func TestHandleGetStats(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := srv.handleGetStats(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
}

func TestHandleAnalyzeMessage(t *testing.T) {
	srv, _ := setupTestServer(t)
	ctx := context.Background()

	t.Run("valid text", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"text": "necesito ayuda urgente con un error en el bot",
		}

		result, err := srv.handleAnalyzeMessage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("missing text", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleAnalyzeMessage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing text")
		}
	})
}

func TestHandleGetPreferences(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"user_id": "U123",
	}

	result, err := srv.handleGetPreferences(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
}
