package llm

import (
	"context"
	"log"
	"strings"
	"time"
)

// DonaSystemPrompt is the bot persona handed to every completion.
const DonaSystemPrompt = `Eres Dona, un asistente útil y amigable en Slack para el equipo de Autonomos.
Tus características:
- Eres profesional pero amigable
- Respondes en el mismo idioma que te hablan
- Eres conciso pero completo en tus respuestas
- Puedes ayudar con tareas técnicas y generales
- Si no sabes algo, lo admites honestamente
- Usas emojis de forma moderada para ser más amigable 😊`

// Fallback replies. The bot always answers something.
const (
	ReplyNotConfigured  = "❌ Bot no configurado correctamente. Contacta al administrador."
	ReplyTechnicalIssue = "😅 Disculpa, tuve un problema técnico. ¿Podrías repetir tu pregunta?"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
	responseTimeout    = 30 * time.Second
)

// Responder turns a user message plus assembled context into a chat reply.
// It never returns an error to the caller; failures become apology text.
type Responder struct {
	provider     Provider
	systemPrompt string
	temperature  float64
	maxTokens    int
}

// NewResponder wires a responder over a provider. provider may be nil when
// the bot runs without credentials; every reply is then ReplyNotConfigured.
func NewResponder(provider Provider) *Responder {
	return &Responder{
		provider:     provider,
		systemPrompt: DonaSystemPrompt,
		temperature:  defaultTemperature,
		maxTokens:    defaultMaxTokens,
	}
}

// SetSystemPrompt overrides the persona. Empty keeps the default.
func (r *Responder) SetSystemPrompt(prompt string) {
	if prompt != "" {
		r.systemPrompt = prompt
	}
}

// Respond builds the message list (persona, context turns, then the user
// message) and asks the provider for a completion.
func (r *Responder) Respond(ctx context.Context, userMessage string, contextTurns []Message) string {
	if r.provider == nil {
		return ReplyNotConfigured
	}

	messages := make([]Message, 0, len(contextTurns)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: r.systemPrompt})
	for _, m := range contextTurns {
		if m.Content == "" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})

	ctx, cancel := context.WithTimeout(ctx, responseTimeout)
	defer cancel()

	resp, err := r.provider.Complete(ctx, CompletionRequest{
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		log.Printf("llm: %s completion failed: %v", r.provider.Name(), err)
		return ReplyTechnicalIssue
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return ReplyTechnicalIssue
	}
	return reply
}
