package bots

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hvergara/dona/internal/canvas"
	"github.com/hvergara/dona/internal/llm"
	"github.com/hvergara/dona/internal/memory"
)

// Processor connects incoming bot messages to the memory manager and the
// response generator.
type Processor struct {
	memory    *memory.Manager
	responder *llm.Responder

	providerName string
	model        string
}

// NewProcessor creates a new message processor. providerName and model are
// only shown by the /provider command.
func NewProcessor(mgr *memory.Manager, responder *llm.Responder, providerName, model string) *Processor {
	return &Processor{
		memory:       mgr,
		responder:    responder,
		providerName: providerName,
		model:        model,
	}
}

// HandleMessage processes an incoming message and returns a response.
// A few texts are handled as commands:
//   - "/provider"          -> show the active LLM provider and model
//   - "stats"              -> memory statistics
//   - "canvas resumen"     -> summary document of the recent conversation
//   - "prefs <key> <val>"  -> update a user preference
//
// everything else goes through the full memory + LLM pipeline.
func (p *Processor) HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return p.reply(msg, "¡Hola! 👋 ¿En qué puedo ayudarte?"), nil
	}

	switch strings.ToLower(text) {
	case "/provider":
		return p.reply(msg, fmt.Sprintf("🤖 *Proveedor activo*: %s\n🔧 *Modelo*: %s",
			p.providerName, p.model)), nil
	case "stats":
		return p.handleStats(ctx, msg)
	case "canvas resumen", "canvas":
		return p.handleCanvasSummary(ctx, msg)
	}

	// Keep the original casing of the value, only the keyword is folded.
	if len(text) > 6 && strings.EqualFold(text[:6], "prefs ") {
		return p.handlePrefs(ctx, msg, text[6:])
	}

	if _, err := p.memory.RecordUserTurn(ctx, memory.Turn{
		UserID:    msg.UserID,
		ChannelID: msg.ChannelID,
		ThreadTS:  msg.ThreadID,
		MessageTS: msg.Timestamp,
		Content:   text,
	}); err != nil {
		if errors.Is(err, memory.ErrMalformedInput) {
			return nil, err
		}
		// Storage trouble must not block the reply; the user just gets a
		// thinner context this time.
		log.Printf("bots: user=%s channel=%s: %v (replying with degraded memory)",
			msg.UserID, msg.ChannelID, err)
	}

	smart := p.memory.IntelligentContext(ctx, msg.UserID, msg.ChannelID, text)

	contextMsgs := make([]llm.Message, 0, len(smart.RelevantHistory)+1)
	for _, turn := range memory.PromptTurns(smart) {
		contextMsgs = append(contextMsgs, llm.Message{
			Role:    llm.Role(turn.Role),
			Content: turn.Content,
		})
	}
	if len(smart.ResponseHints) > 0 {
		contextMsgs = append(contextMsgs, llm.Message{
			Role: llm.RoleSystem,
			Content: fmt.Sprintf("Tono recomendado: %s. Sugerencias: %s.",
				smart.RecommendedTone, strings.Join(smart.ResponseHints, "; ")),
		})
	}

	response := p.responder.Respond(ctx, text, contextMsgs)

	if _, err := p.memory.RecordAssistantTurn(ctx, memory.Turn{
		UserID:    msg.UserID,
		ChannelID: msg.ChannelID,
		ThreadTS:  msg.ThreadID,
		Content:   response,
	}); err != nil {
		// the user already has their answer; losing the bot turn only
		// degrades future context
		log.Printf("bots: user=%s channel=%s: %v", msg.UserID, msg.ChannelID, err)
	}

	return p.reply(msg, response), nil
}

func (p *Processor) handleStats(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	stats, err := p.memory.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats command: %w", err)
	}
	text := fmt.Sprintf("📊 *Memoria de Dona*\n• Usuarios: %d\n• Conversaciones: %d\n• Contextos activos: %d",
		stats.Store.TotalUsers, stats.Store.TotalTurns, stats.Store.ActiveContexts)
	if stats.Realtime != nil {
		text += fmt.Sprintf("\n• Sesiones en vivo: %d\n• Mensajes hoy: %d",
			stats.Realtime.ActiveSessions, stats.Realtime.MessagesToday)
	}
	return p.reply(msg, text), nil
}

func (p *Processor) handlePrefs(ctx context.Context, msg IncomingMessage, args string) (*OutgoingMessage, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return p.reply(msg, "Uso: `prefs <clave> <valor>` (ej. `prefs communication_style formal`)"), nil
	}
	key := fields[0]
	value := strings.Join(fields[1:], " ")

	var v any = value
	switch value {
	case "true":
		v = true
	case "false":
		v = false
	}

	if err := p.memory.UpdatePreferences(ctx, msg.UserID, map[string]any{key: v}); err != nil {
		return nil, fmt.Errorf("prefs command: %w", err)
	}
	return p.reply(msg, fmt.Sprintf("✅ Preferencia actualizada: *%s* = %v", key, v)), nil
}

func (p *Processor) handleCanvasSummary(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	turns, err := p.memory.PlainContext(ctx, msg.UserID, msg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("canvas summary: %w", err)
	}
	if len(turns) == 0 {
		return p.reply(msg, "📝 Aún no hay conversación que resumir."), nil
	}
	doc := canvas.BuildSummary(msg.UserName, turns)
	return p.reply(msg, doc.Markdown), nil
}

func (p *Processor) reply(msg IncomingMessage, text string) *OutgoingMessage {
	return &OutgoingMessage{
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
		Text:      text,
	}
}
