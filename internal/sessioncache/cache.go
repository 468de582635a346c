// Package sessioncache is the optional Redis tier in front of the durable
// conversation log. It tracks live interaction sessions, keeps a short
// recent-context cache and rolls daily usage counters.
//
// The cache is disposable: everything it holds can be rebuilt from the
// durable store, so every operation degrades to a no-op or a miss when
// Redis is unreachable or not configured. Callers never see an error from
// this package.
package sessioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hvergara/dona/internal/analysis"
)

const (
	// DefaultSessionTTL is how long a session survives without activity.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultContextTTL is the lifetime of a cached context snapshot.
	DefaultContextTTL = 10 * time.Minute
	// counterTTL keeps daily counters around for a week.
	counterTTL = 7 * 24 * time.Hour
	// maxCachedTurns caps the context snapshot size.
	maxCachedTurns = 5

	activeSessionsKey = "active_sessions"
)

// Session is the ephemeral record of a live interaction burst.
type Session struct {
	UserID       string            `json:"user_id"`
	ChannelID    string            `json:"channel_id"`
	StartedAt    time.Time         `json:"started_at"`
	LastActivity time.Time         `json:"last_activity"`
	MessageCount int               `json:"message_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// RealtimeStats is a coarse live view of bot activity.
type RealtimeStats struct {
	ActiveSessions int64 `json:"active_sessions"`
	MessagesToday  int64 `json:"messages_today"`
	ActiveUsers    int   `json:"active_users"`
}

// Cache is the Redis-backed fast tier. A nil client (no Redis configured)
// is a valid state: every method reports unavailable.
type Cache struct {
	client     *redis.Client
	sessionTTL time.Duration
	contextTTL time.Duration
}

// New connects to Redis at the given URL. An empty URL disables the cache
// entirely; a bad URL or unreachable server is logged and likewise yields
// a disabled cache, never an error.
func New(redisURL string, sessionTTL, contextTTL time.Duration) *Cache {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if contextTTL <= 0 {
		contextTTL = DefaultContextTTL
	}

	c := &Cache{sessionTTL: sessionTTL, contextTTL: contextTTL}
	if redisURL == "" {
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("sessioncache: invalid redis url, cache disabled: %v", err)
		return c
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	c.client = redis.NewClient(opts)
	return c
}

// NewWithClient wraps an existing Redis client (used by tests).
func NewWithClient(client *redis.Client, sessionTTL, contextTTL time.Duration) *Cache {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if contextTTL <= 0 {
		contextTTL = DefaultContextTTL
	}
	return &Cache{client: client, sessionTTL: sessionTTL, contextTTL: contextTTL}
}

// IsAvailable reports whether the backing Redis answers a ping.
func (c *Cache) IsAvailable(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}

func sessionKey(userID, channelID string) string {
	return fmt.Sprintf("session:%s:%s", userID, channelID)
}

func contextKey(userID, channelID string) string {
	return fmt.Sprintf("context:%s:%s", userID, channelID)
}

func statsKey(category string, day time.Time) string {
	return fmt.Sprintf("stats:%s:%s", category, day.Format("2006-01-02"))
}

// StartSession creates or overwrites the session record for the scope and
// registers it in the active-sessions index.
func (c *Cache) StartSession(ctx context.Context, userID, channelID string, metadata map[string]string) {
	if !c.IsAvailable(ctx) {
		return
	}

	now := time.Now().UTC()
	sess := Session{
		UserID:       userID,
		ChannelID:    channelID,
		StartedAt:    now,
		LastActivity: now,
		Metadata:     metadata,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return
	}

	key := sessionKey(userID, channelID)
	if err := c.client.SetEx(ctx, key, data, c.sessionTTL).Err(); err != nil {
		log.Printf("sessioncache: start session %s: %v", key, err)
		return
	}
	c.client.SAdd(ctx, activeSessionsKey, key)
}

// TouchSession refreshes last-activity, bumps the message count and renews
// the TTL. Missing sessions are ignored; losing a renewal race only
// shortens the session.
func (c *Cache) TouchSession(ctx context.Context, userID, channelID string) {
	if !c.IsAvailable(ctx) {
		return
	}

	key := sessionKey(userID, channelID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return
	}
	sess.LastActivity = time.Now().UTC()
	sess.MessageCount++

	updated, err := json.Marshal(sess)
	if err != nil {
		return
	}
	c.client.SetEx(ctx, key, updated, c.sessionTTL)
}

// GetSession returns the live session for the scope, or ok=false.
func (c *Cache) GetSession(ctx context.Context, userID, channelID string) (*Session, bool) {
	if !c.IsAvailable(ctx) {
		return nil, false
	}

	data, err := c.client.Get(ctx, sessionKey(userID, channelID)).Bytes()
	if err != nil {
		return nil, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, false
	}
	return &sess, true
}

// EndSession removes the session record and its index entry.
func (c *Cache) EndSession(ctx context.Context, userID, channelID string) {
	if !c.IsAvailable(ctx) {
		return
	}

	key := sessionKey(userID, channelID)
	c.client.Del(ctx, key)
	c.client.SRem(ctx, activeSessionsKey, key)
}

// CacheContext stores the last turns (at most five) for the scope with a
// short TTL, as a read-through accelerator for the durable store.
func (c *Cache) CacheContext(ctx context.Context, userID, channelID string, turns []analysis.Turn) {
	if !c.IsAvailable(ctx) || len(turns) == 0 {
		return
	}

	if len(turns) > maxCachedTurns {
		turns = turns[len(turns)-maxCachedTurns:]
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return
	}
	key := contextKey(userID, channelID)
	if err := c.client.SetEx(ctx, key, data, c.contextTTL).Err(); err != nil {
		log.Printf("sessioncache: cache context %s: %v", key, err)
	}
}

// GetCachedContext returns the cached context snapshot, or ok=false.
func (c *Cache) GetCachedContext(ctx context.Context, userID, channelID string) ([]analysis.Turn, bool) {
	if !c.IsAvailable(ctx) {
		return nil, false
	}

	data, err := c.client.Get(ctx, contextKey(userID, channelID)).Bytes()
	if err != nil {
		return nil, false
	}

	var turns []analysis.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, false
	}
	return turns, true
}

// IncrementCounter bumps today's message counter for the category
// ("user" or "bot") and keeps the key for a week.
func (c *Cache) IncrementCounter(ctx context.Context, category string) {
	if !c.IsAvailable(ctx) {
		return
	}

	key := statsKey(category, time.Now().UTC())
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return
	}
	c.client.Expire(ctx, key, counterTTL)
}

// RealtimeStats returns active session count, today's user-message counter
// and an approximate distinct-active-user count.
func (c *Cache) RealtimeStats(ctx context.Context) (RealtimeStats, bool) {
	if !c.IsAvailable(ctx) {
		return RealtimeStats{}, false
	}

	var stats RealtimeStats
	stats.ActiveSessions, _ = c.client.SCard(ctx, activeSessionsKey).Result()
	stats.MessagesToday, _ = c.client.Get(ctx, statsKey("user", time.Now().UTC())).Int64()

	users := map[string]bool{}
	iter := c.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		parts := strings.SplitN(iter.Val(), ":", 3)
		if len(parts) == 3 {
			users[parts[1]] = true
		}
	}
	stats.ActiveUsers = len(users)

	return stats, true
}

// CleanupExpiredIndexEntries prunes index-set members whose session key
// has already expired. Maintenance only; returns how many were removed.
func (c *Cache) CleanupExpiredIndexEntries(ctx context.Context) int {
	if !c.IsAvailable(ctx) {
		return 0
	}

	members, err := c.client.SMembers(ctx, activeSessionsKey).Result()
	if err != nil {
		return 0
	}

	removed := 0
	for _, key := range members {
		exists, err := c.client.Exists(ctx, key).Result()
		if err == nil && exists == 0 {
			c.client.SRem(ctx, activeSessionsKey, key)
			removed++
		}
	}
	return removed
}
