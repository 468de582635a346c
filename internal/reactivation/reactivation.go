// Package reactivation drafts re-engagement messages for users who have
// gone quiet, as a batch job driven from the CLI.
package reactivation

import (
	"context"
	"fmt"
	"time"

	"github.com/hvergara/dona/internal/memory"
	"github.com/hvergara/dona/internal/progress"
)

// DefaultIdleAfter is how long without a turn before a user counts as idle.
const DefaultIdleAfter = 7 * 24 * time.Hour

const messageTemplate = `🔄 ¡Hola%s! Soy Dona 👋

Hace tiempo que no hablamos. Sigo disponible y funcionando:
✅ Memoria de conversaciones activa
✅ Respuestas con IA configuradas

**PRUEBA AHORA:**
• Escríbeme un DM con lo que necesites
• O menciona @dona en cualquier canal

Estoy aquí para ayudarte con tareas técnicas y generales.`

// Draft is a re-engagement message ready to deliver.
type Draft struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username,omitempty"`
	LastSeen time.Time `json:"last_seen"`
	Text     string    `json:"text"`
}

// Job finds idle users and drafts one message per user.
type Job struct {
	store     *memory.Store
	idleAfter time.Duration
	reporter  progress.Reporter
}

// NewJob wires a job. idleAfter <= 0 uses the default window and a nil
// reporter runs silently.
func NewJob(store *memory.Store, idleAfter time.Duration, reporter progress.Reporter) *Job {
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Job{store: store, idleAfter: idleAfter, reporter: reporter}
}

// Run collects idle users and builds their drafts. The caller decides how
// to deliver them.
func (j *Job) Run(ctx context.Context) ([]Draft, error) {
	idle, err := j.store.FindIdleUsers(ctx, j.idleAfter)
	if err != nil {
		return nil, fmt.Errorf("reactivation: %w", err)
	}
	if len(idle) == 0 {
		return nil, nil
	}

	j.reporter.Start(len(idle))
	defer j.reporter.Finish()

	drafts := make([]Draft, 0, len(idle))
	for i, u := range idle {
		if err := ctx.Err(); err != nil {
			return drafts, err
		}
		drafts = append(drafts, Draft{
			UserID:   u.UserID,
			Username: u.Username,
			LastSeen: u.LastSeen,
			Text:     BuildMessage(u.Username),
		})
		j.reporter.Update(i+1, u.UserID)
	}
	return drafts, nil
}

// BuildMessage renders the re-engagement text, personalized when the
// username is known.
func BuildMessage(username string) string {
	greeting := ""
	if username != "" {
		greeting = " " + username
	}
	return fmt.Sprintf(messageTemplate, greeting)
}
