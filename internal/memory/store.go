package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hvergara/dona/internal/db"
)

// Store persists users, conversation turns and active context summaries in
// SQLite. Turns are append-only; there is no update or single-row delete.
type Store struct {
	db       *db.DB
	defaults map[string]any
}

// NewStore wires a store over an open database. defaults are the preference
// values returned for users that have none; nil means DefaultPreferences.
func NewStore(database *db.DB, defaults map[string]any) *Store {
	if defaults == nil {
		defaults = DefaultPreferences()
	}
	return &Store{db: database, defaults: defaults}
}

// UpsertUser creates or replaces a user profile. Preferences are replaced
// wholesale; use UpdatePreferences for a merge.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	if u.ID == "" {
		return fmt.Errorf("upsert user: %w: empty user id", ErrMalformedInput)
	}
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("upsert user: marshal preferences: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, display_name, preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			preferences = excluded.preferences,
			updated_at = excluded.updated_at`,
		u.ID, u.Username, u.DisplayName, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// EnsureUser inserts a bare profile if the user is unknown. Existing rows
// are left untouched.
func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("ensure user: %w: empty user id", ErrMalformedInput)
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, preferences, created_at, updated_at)
		VALUES (?, '{}', ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, now, now)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// GetUser fetches a user profile. Unknown users return sql.ErrNoRows.
func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	var (
		u        User
		username sql.NullString
		display  sql.NullString
		rawPrefs string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, display_name, preferences, created_at, updated_at
		FROM users WHERE user_id = ?`, userID).
		Scan(&u.ID, &username, &display, &rawPrefs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	u.Username = username.String
	u.DisplayName = display.String
	u.Preferences = s.decodePreferences(rawPrefs)
	return &u, nil
}

// GetUserPreferences returns the stored preferences merged over the
// defaults. Unknown users get the defaults unchanged.
func (s *Store) GetUserPreferences(ctx context.Context, userID string) (map[string]any, error) {
	var rawPrefs string
	err := s.db.QueryRowContext(ctx,
		`SELECT preferences FROM users WHERE user_id = ?`, userID).Scan(&rawPrefs)
	if err == sql.ErrNoRows {
		return s.decodePreferences("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences %s: %w", userID, err)
	}
	return s.decodePreferences(rawPrefs), nil
}

func (s *Store) decodePreferences(raw string) map[string]any {
	merged := make(map[string]any, len(s.defaults))
	for k, v := range s.defaults {
		merged[k] = v
	}
	var stored map[string]any
	if raw != "" && json.Unmarshal([]byte(raw), &stored) == nil {
		for k, v := range stored {
			merged[k] = v
		}
	}
	return merged
}

// UpdatePreferences merges updates into the user's stored preferences.
// Keys not present in updates keep their current value. The user row is
// created if it does not exist yet.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, updates map[string]any) error {
	if userID == "" {
		return fmt.Errorf("update preferences: %w: empty user id", ErrMalformedInput)
	}
	var rawPrefs string
	current := map[string]any{}
	err := s.db.QueryRowContext(ctx,
		`SELECT preferences FROM users WHERE user_id = ?`, userID).Scan(&rawPrefs)
	switch {
	case err == sql.ErrNoRows:
		// new user, merge over nothing
	case err != nil:
		return fmt.Errorf("update preferences %s: %w", userID, err)
	default:
		if rawPrefs != "" {
			_ = json.Unmarshal([]byte(rawPrefs), &current)
		}
	}
	for k, v := range updates {
		current[k] = v
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("update preferences %s: marshal: %w", userID, err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferences = excluded.preferences,
			updated_at = excluded.updated_at`,
		userID, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("update preferences %s: %w", userID, err)
	}
	return nil
}

// AppendTurn records a conversation turn. The id and timestamp are assigned
// here so ordering within a scope follows insertion order regardless of
// caller clocks.
func (s *Store) AppendTurn(ctx context.Context, t Turn) (string, error) {
	if t.UserID == "" || t.ChannelID == "" {
		return "", fmt.Errorf("append turn: %w: user and channel required", ErrMalformedInput)
	}
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return "", fmt.Errorf("append turn: %w: role %q", ErrMalformedInput, t.Role)
	}
	if err := s.EnsureUser(ctx, t.UserID); err != nil {
		return "", err
	}
	id := uuid.NewString()
	meta := "{}"
	if len(t.Metadata) > 0 {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return "", fmt.Errorf("append turn: marshal metadata: %w", err)
		}
		meta = string(raw)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, channel_id, thread_ts, message_ts, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.UserID, t.ChannelID, t.ThreadTS, t.MessageTS, string(t.Role), t.Content, meta, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("append turn: %w", err)
	}
	return id, nil
}

// GetHistory returns turns for a user, oldest first. channelID narrows the
// scope when non-empty. maxAge limits how far back to look (0 means no
// limit) and limit caps the count of most-recent turns returned.
func (s *Store) GetHistory(ctx context.Context, userID, channelID string, limit int, maxAge time.Duration) ([]Turn, error) {
	if userID == "" {
		return nil, fmt.Errorf("get history: %w: empty user id", ErrMalformedInput)
	}
	if limit <= 0 {
		limit = 50
	}
	var (
		conds = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if channelID != "" {
		conds = append(conds, "channel_id = ?")
		args = append(args, channelID)
	}
	if maxAge > 0 {
		conds = append(conds, "created_at >= ?")
		args = append(args, time.Now().UTC().Add(-maxAge))
	}
	args = append(args, limit)

	// Most recent N, then flipped back to chronological order.
	query := fmt.Sprintf(`
		SELECT id, user_id, channel_id, thread_ts, message_ts, role, content, metadata, created_at
		FROM conversations
		WHERE %s
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, strings.Join(conds, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t        Turn
			threadTS sql.NullString
			msgTS    sql.NullString
			role     string
			meta     string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.ChannelID, &threadTS, &msgTS, &role, &t.Content, &meta, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("get history: scan: %w", err)
		}
		t.ThreadTS = threadTS.String
		t.MessageTS = msgTS.String
		t.Role = Role(role)
		if meta != "" && meta != "{}" {
			_ = json.Unmarshal([]byte(meta), &t.Metadata)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	// reverse into chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// UpdateActiveContext writes the rolling context summary for a session.
// Rows carry their own expiry so sweeps can drop stale ones.
func (s *Store) UpdateActiveContext(ctx context.Context, sessionID, userID, channelID, summary string, topics []string, ttl time.Duration) error {
	if sessionID == "" || userID == "" {
		return fmt.Errorf("update active context: %w: session and user required", ErrMalformedInput)
	}
	rawTopics, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("update active context: marshal topics: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO active_context (session_id, user_id, channel_id, context_summary, current_topics, last_activity, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, userID, channelID, summary, string(rawTopics), now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("update active context: %w", err)
	}
	return nil
}

// IdleUser is a known user with no recent conversation activity.
type IdleUser struct {
	UserID   string
	Username string
	LastSeen time.Time
}

// FindIdleUsers returns users whose latest turn is older than idleAfter.
// Users with no turns at all count as idle since their profile creation.
func (s *Store) FindIdleUsers(ctx context.Context, idleAfter time.Duration) ([]IdleUser, error) {
	cutoff := time.Now().UTC().Add(-idleAfter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.user_id, u.username, COALESCE(MAX(c.created_at), u.created_at) AS last_seen
		FROM users u
		LEFT JOIN conversations c ON c.user_id = u.user_id
		GROUP BY u.user_id
		HAVING last_seen < ?
		ORDER BY last_seen ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find idle users: %w", err)
	}
	defer rows.Close()

	var idle []IdleUser
	for rows.Next() {
		var (
			u        IdleUser
			username sql.NullString
			lastSeen string
		)
		// COALESCE strips the DATETIME declared type, so the driver returns
		// the raw text instead of a time.Time; parse it the same way the
		// driver would for a typed column.
		if err := rows.Scan(&u.UserID, &username, &lastSeen); err != nil {
			return nil, fmt.Errorf("find idle users: scan: %w", err)
		}
		ts, err := parseSQLiteTime(lastSeen)
		if err != nil {
			return nil, fmt.Errorf("find idle users: parse last_seen: %w", err)
		}
		u.LastSeen = ts
		u.Username = username.String
		idle = append(idle, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find idle users: %w", err)
	}
	return idle, nil
}

// parseSQLiteTime parses a timestamp string using the same layouts the
// sqlite driver accepts for DATETIME columns: the time.Time.String format
// it writes by default, plus the standard SQLite datetime formats.
func parseSQLiteTime(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// PurgeOlderThan deletes turns older than the given number of days along
// with expired active context rows.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (PurgeResult, error) {
	var res PurgeResult
	if days <= 0 {
		return res, fmt.Errorf("purge: days must be positive, got %d", days)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	r, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE created_at < ?`, cutoff)
	if err != nil {
		return res, fmt.Errorf("purge conversations: %w", err)
	}
	res.TurnsDeleted, _ = r.RowsAffected()

	r, err = s.db.ExecContext(ctx, `DELETE FROM active_context WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return res, fmt.Errorf("purge active context: %w", err)
	}
	res.ContextsDeleted, _ = r.RowsAffected()
	return res, nil
}

// Stats reports row counts and on-disk size of the durable tier.
func (s *Store) Stats(ctx context.Context) (StoreStats, error) {
	var stats StoreStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return stats, fmt.Errorf("stats: count users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&stats.TotalTurns); err != nil {
		return stats, fmt.Errorf("stats: count conversations: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM active_context WHERE expires_at >= ?`,
		time.Now().UTC()).Scan(&stats.ActiveContexts); err != nil {
		return stats, fmt.Errorf("stats: count contexts: %w", err)
	}
	if path := s.db.Path(); path != "" && path != ":memory:" {
		if fi, err := os.Stat(path); err == nil {
			stats.SizeBytes = fi.Size()
		}
	}
	return stats, nil
}
