package bots

// Platform identifies the messaging platform.
type Platform string

const PlatformSlack Platform = "slack"

// IncomingMessage represents a message received from the platform.
type IncomingMessage struct {
	Platform  Platform
	ChannelID string
	UserID    string
	UserName  string
	Text      string
	ThreadID  string // for threaded replies
	Timestamp string
	DirectMsg bool
}

// OutgoingMessage represents a response to send back.
type OutgoingMessage struct {
	ChannelID string
	Text      string
	ThreadID  string
}

// BotConfig holds bot configuration.
type BotConfig struct {
	Platform      Platform
	Token         string
	SigningSecret string
}
