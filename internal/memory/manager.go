package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hvergara/dona/internal/analysis"
	"github.com/hvergara/dona/internal/sessioncache"
)

const (
	// DefaultPlainLookback bounds plain context reads.
	DefaultPlainLookback = 2 * time.Hour
	// DefaultIntelligentLookback bounds the wider intelligent-context reads.
	DefaultIntelligentLookback = 4 * time.Hour

	// cacheHitMinTurns is how many cached turns a context entry needs to be
	// served without touching the durable store.
	cacheHitMinTurns = 3

	// activeContextTTL is how long a persisted context snapshot stays
	// meaningful before sweeps drop it.
	activeContextTTL = 2 * time.Hour

	// DefaultPlainContextLimit and DefaultIntelligentContextLimit cap how
	// many turns each context read pulls from the store.
	DefaultPlainContextLimit       = 10
	DefaultIntelligentContextLimit = 20

	writeTimeout = 10 * time.Second
)

// Manager is the single entry point the chat layer talks to. It coordinates
// the durable store, the disposable session cache and the semantic analyzer
// so that callers never see cache failures.
type Manager struct {
	store     *Store
	cache     *sessioncache.Cache
	relevance analysis.RelevanceParams

	plainLookback       time.Duration
	intelligentLookback time.Duration
	plainLimit          int
	intelligentLimit    int
}

// NewManager wires a manager. cache may be a disabled cache; everything
// still works, just slower.
func NewManager(store *Store, cache *sessioncache.Cache) *Manager {
	if cache == nil {
		cache = sessioncache.New("", 0, 0)
	}
	return &Manager{
		store:               store,
		cache:               cache,
		relevance:           analysis.DefaultRelevanceParams(),
		plainLookback:       DefaultPlainLookback,
		intelligentLookback: DefaultIntelligentLookback,
		plainLimit:          DefaultPlainContextLimit,
		intelligentLimit:    DefaultIntelligentContextLimit,
	}
}

// SetRelevanceParams overrides the history filtering thresholds.
func (m *Manager) SetRelevanceParams(p analysis.RelevanceParams) { m.relevance = p }

// SetLookbacks overrides the history windows. Zero values keep the current
// setting.
func (m *Manager) SetLookbacks(plain, intelligent time.Duration) {
	if plain > 0 {
		m.plainLookback = plain
	}
	if intelligent > 0 {
		m.intelligentLookback = intelligent
	}
}

// SetContextLimits overrides how many turns the context reads consider.
// Non-positive values keep the current setting.
func (m *Manager) SetContextLimits(plain, intelligent int) {
	if plain > 0 {
		m.plainLimit = plain
	}
	if intelligent > 0 {
		m.intelligentLimit = intelligent
	}
}

// writeCtx detaches durable writes from the caller's cancellation so an
// aborted request cannot lose an already-received message.
func writeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
}

// RecordUserTurn persists an inbound user message and refreshes the user's
// session. Returns the stored turn id.
func (m *Manager) RecordUserTurn(ctx context.Context, t Turn) (string, error) {
	t.Role = RoleUser
	wctx, cancel := writeCtx(ctx)
	defer cancel()
	id, err := m.store.AppendTurn(wctx, t)
	if err != nil {
		return "", fmt.Errorf("record user turn: %w", err)
	}
	m.touchSession(ctx, t.UserID, t.ChannelID)
	m.cache.IncrementCounter(ctx, "user")
	return id, nil
}

// RecordAssistantTurn persists the bot's reply.
func (m *Manager) RecordAssistantTurn(ctx context.Context, t Turn) (string, error) {
	t.Role = RoleAssistant
	wctx, cancel := writeCtx(ctx)
	defer cancel()
	id, err := m.store.AppendTurn(wctx, t)
	if err != nil {
		return "", fmt.Errorf("record assistant turn: %w", err)
	}
	m.touchSession(ctx, t.UserID, t.ChannelID)
	m.cache.IncrementCounter(ctx, "bot")
	return id, nil
}

func (m *Manager) touchSession(ctx context.Context, userID, channelID string) {
	if _, ok := m.cache.GetSession(ctx, userID, channelID); ok {
		m.cache.TouchSession(ctx, userID, channelID)
		return
	}
	m.cache.StartSession(ctx, userID, channelID, nil)
}

// PlainContext returns the recent conversation as role/content pairs,
// oldest first. The cache is consulted first; a miss falls through to the
// store and repopulates the cache. An empty history is not an error.
func (m *Manager) PlainContext(ctx context.Context, userID, channelID string) ([]analysis.Turn, error) {
	if cached, ok := m.cache.GetCachedContext(ctx, userID, channelID); ok && len(cached) >= cacheHitMinTurns {
		return cached, nil
	}

	history, err := m.store.GetHistory(ctx, userID, channelID, m.plainLimit, m.plainLookback)
	if err != nil {
		return nil, fmt.Errorf("plain context: %w", err)
	}
	turns := toAnalysisTurns(history)
	if len(turns) > 0 {
		m.cache.CacheContext(ctx, userID, channelID, turns)
	}
	return turns, nil
}

// IntelligentContext runs the full analysis pipeline for an inbound
// message: wider history window, relevance filtering, summary, hints and
// tone. If the durable store fails the result degrades to whatever the
// cache holds plus neutral hints, and the error is only logged.
func (m *Manager) IntelligentContext(ctx context.Context, userID, channelID, message string) analysis.SmartContext {
	commStyle := "casual"
	if prefs, err := m.store.GetUserPreferences(ctx, userID); err == nil {
		if style, ok := prefs["communication_style"].(string); ok && style != "" {
			commStyle = style
		}
	}

	history, err := m.store.GetHistory(ctx, userID, channelID, m.intelligentLimit, m.intelligentLookback)
	if err != nil {
		log.Printf("intelligent context: history unavailable for %s: %v", userID, err)
		cached, _ := m.cache.GetCachedContext(ctx, userID, channelID)
		return analysis.SmartContext{
			MessageAnalysis: analysis.AnalyzeMessage(message),
			RelevantHistory: cached,
			ContextSummary:  "Nueva conversación sin contexto previo.",
			ResponseHints:   []string{analysis.DefaultHint},
			RecommendedTone: analysis.ToneCasual,
		}
	}

	smart := analysis.GenerateSmartContext(message, toAnalysisTurns(history), commStyle, m.relevance)

	// Persist a snapshot so other surfaces can see the live conversation.
	sessionID := userID + ":" + channelID
	if err := m.store.UpdateActiveContext(ctx, sessionID, userID, channelID,
		smart.ContextSummary, smart.MessageAnalysis.Topics, activeContextTTL); err != nil {
		log.Printf("intelligent context: snapshot for %s: %v", sessionID, err)
	}
	return smart
}

// PromptTurns flattens a smart context into the turn list handed to the
// response generator. Summaries rich enough to matter are prepended as a
// system turn.
func PromptTurns(smart analysis.SmartContext) []analysis.Turn {
	turns := smart.RelevantHistory
	if len(turns) > 2 && smart.ContextSummary != "" {
		prefixed := make([]analysis.Turn, 0, len(turns)+1)
		prefixed = append(prefixed, analysis.Turn{
			Role:    "system",
			Content: "Contexto de la conversación: " + smart.ContextSummary,
		})
		prefixed = append(prefixed, turns...)
		return prefixed
	}
	return turns
}

// Stats combines durable counters with whatever realtime numbers the cache
// can offer.
type Stats struct {
	Store    StoreStats                 `json:"store"`
	Realtime *sessioncache.RealtimeStats `json:"realtime,omitempty"`
}

// Stats reports the combined state of both tiers. Cache unavailability
// leaves Realtime nil rather than failing.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	storeStats, err := m.store.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	out := Stats{Store: storeStats}
	if rt, ok := m.cache.RealtimeStats(ctx); ok {
		out.Realtime = &rt
	}
	return out, nil
}

// History proxies durable history reads for the HTTP and MCP surfaces.
func (m *Manager) History(ctx context.Context, userID, channelID string, limit int, maxAge time.Duration) ([]Turn, error) {
	return m.store.GetHistory(ctx, userID, channelID, limit, maxAge)
}

// Preferences proxies preference reads for the HTTP surface.
func (m *Manager) Preferences(ctx context.Context, userID string) (map[string]any, error) {
	return m.store.GetUserPreferences(ctx, userID)
}

// UpdatePreferences proxies preference merges for the HTTP surface.
func (m *Manager) UpdatePreferences(ctx context.Context, userID string, updates map[string]any) error {
	wctx, cancel := writeCtx(ctx)
	defer cancel()
	return m.store.UpdatePreferences(wctx, userID, updates)
}

// Purge removes turns older than the retention window and expired context
// snapshots.
func (m *Manager) Purge(ctx context.Context, days int) (PurgeResult, error) {
	res, err := m.store.PurgeOlderThan(ctx, days)
	if err != nil {
		return res, err
	}
	if n := m.cache.CleanupExpiredIndexEntries(ctx); n > 0 {
		log.Printf("purge: dropped %d stale session index entries", n)
	}
	return res, nil
}

func toAnalysisTurns(history []Turn) []analysis.Turn {
	turns := make([]analysis.Turn, 0, len(history))
	for _, t := range history {
		turns = append(turns, analysis.Turn{Role: string(t.Role), Content: t.Content})
	}
	return turns
}
