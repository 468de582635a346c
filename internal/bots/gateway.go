package bots

import (
	"context"
	"fmt"
)

// MessageHandler processes incoming messages and produces responses.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error)
}

// Gateway routes messages from platform adapters to the handler. It is
// the seam between webhook parsing and conversation processing.
type Gateway struct {
	handler MessageHandler
}

// NewGateway creates a new Gateway with the given message handler.
func NewGateway(handler MessageHandler) *Gateway {
	return &Gateway{handler: handler}
}

// Process routes an incoming message through the handler.
func (g *Gateway) Process(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	out, err := g.handler.HandleMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%s handler: %w", msg.Platform, err)
	}
	return out, nil
}
