package memory

import (
	"errors"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrMalformedInput is returned when a required field (user id, channel id,
// role) is missing or invalid. It is the only error class that propagates
// to the chat adapter; everything else degrades.
var ErrMalformedInput = errors.New("malformed input")

// User is a chat-platform user known to the bot.
type User struct {
	ID          string         `json:"user_id"`
	Username    string         `json:"username,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DefaultPreferences returns the documented defaults for users that have
// never set anything.
func DefaultPreferences() map[string]any {
	return map[string]any{
		"communication_style": "casual",
		"language":            "es",
		"timezone":            "UTC-5",
		"notifications":       true,
	}
}

// Turn is one immutable recorded message within a (user, channel) scope.
type Turn struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ChannelID string            `json:"channel_id"`
	ThreadTS  string            `json:"thread_ts,omitempty"`
	MessageTS string            `json:"message_ts,omitempty"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// StoreStats are counters over the durable tier.
type StoreStats struct {
	TotalUsers     int   `json:"total_users"`
	TotalTurns     int   `json:"total_conversations"`
	ActiveContexts int   `json:"active_contexts"`
	SizeBytes      int64 `json:"db_size_bytes"`
}

// PurgeResult reports what a retention sweep removed.
type PurgeResult struct {
	TurnsDeleted    int64 `json:"conversations_deleted"`
	ContextsDeleted int64 `json:"contexts_deleted"`
}
