package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hvergara/dona/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, nil)
}

func TestAppendAndHistoryOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	contents := []string{"hola", "¡hola! ¿en qué te ayudo?", "necesito ayuda con el bot"}
	roles := []Role{RoleUser, RoleAssistant, RoleUser}
	for i, c := range contents {
		id, err := store.AppendTurn(ctx, Turn{
			UserID: "U123", ChannelID: "C1", Role: roles[i], Content: c,
		})
		if err != nil {
			t.Fatalf("append turn %d: %v", i, err)
		}
		if id == "" {
			t.Fatal("expected non-empty turn id")
		}
	}

	turns, err := store.GetHistory(ctx, "U123", "C1", 50, 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(turns) != len(contents) {
		t.Fatalf("got %d turns, want %d", len(turns), len(contents))
	}
	for i, turn := range turns {
		if turn.Content != contents[i] {
			t.Errorf("turn %d content = %q, want %q", i, turn.Content, contents[i])
		}
		if turn.Role != roles[i] {
			t.Errorf("turn %d role = %q, want %q", i, turn.Role, roles[i])
		}
	}
}

func TestHistoryScopedByChannel(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, ch := range []string{"C1", "C2", "C1"} {
		if _, err := store.AppendTurn(ctx, Turn{
			UserID: "U123", ChannelID: ch, Role: RoleUser, Content: "msg in " + ch,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := store.GetHistory(ctx, "U123", "C1", 50, 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns for C1, want 2", len(turns))
	}
	for _, turn := range turns {
		if turn.ChannelID != "C1" {
			t.Errorf("turn leaked from channel %q", turn.ChannelID)
		}
	}

	all, err := store.GetHistory(ctx, "U123", "", 50, 0)
	if err != nil {
		t.Fatalf("get history all channels: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d turns across channels, want 3", len(all))
	}
}

func TestHistoryLimitKeepsMostRecent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, c := range []string{"uno", "dos", "tres", "cuatro"} {
		if _, err := store.AppendTurn(ctx, Turn{
			UserID: "U123", ChannelID: "C1", Role: RoleUser, Content: c,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := store.GetHistory(ctx, "U123", "C1", 2, 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Content != "tres" || turns[1].Content != "cuatro" {
		t.Errorf("got %q then %q, want the two most recent in order", turns[0].Content, turns[1].Content)
	}
}

func TestAppendTurnValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	cases := []Turn{
		{ChannelID: "C1", Role: RoleUser, Content: "no user"},
		{UserID: "U1", Role: RoleUser, Content: "no channel"},
		{UserID: "U1", ChannelID: "C1", Role: "robot", Content: "bad role"},
	}
	for _, tc := range cases {
		if _, err := store.AppendTurn(ctx, tc); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("AppendTurn(%+v) error = %v, want ErrMalformedInput", tc, err)
		}
	}
}

func TestDefaultPreferencesForUnknownUser(t *testing.T) {
	store := setupTestStore(t)

	prefs, err := store.GetUserPreferences(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs["communication_style"] != "casual" {
		t.Errorf("communication_style = %v, want casual", prefs["communication_style"])
	}
	if prefs["language"] != "es" {
		t.Errorf("language = %v, want es", prefs["language"])
	}
	if prefs["timezone"] != "UTC-5" {
		t.Errorf("timezone = %v, want UTC-5", prefs["timezone"])
	}
	if prefs["notifications"] != true {
		t.Errorf("notifications = %v, want true", prefs["notifications"])
	}
}

func TestUpdatePreferencesMerges(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.UpdatePreferences(ctx, "U123", map[string]any{"language": "en"}); err != nil {
		t.Fatalf("update preferences: %v", err)
	}
	if err := store.UpdatePreferences(ctx, "U123", map[string]any{"communication_style": "formal"}); err != nil {
		t.Fatalf("update preferences: %v", err)
	}

	prefs, err := store.GetUserPreferences(ctx, "U123")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs["language"] != "en" {
		t.Errorf("language = %v, want en (first update kept)", prefs["language"])
	}
	if prefs["communication_style"] != "formal" {
		t.Errorf("communication_style = %v, want formal", prefs["communication_style"])
	}
	if prefs["timezone"] != "UTC-5" {
		t.Errorf("timezone = %v, want default UTC-5", prefs["timezone"])
	}
}

func TestUpsertUserReplacesPreferences(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.UpsertUser(ctx, User{
		ID: "U123", Username: "hugo",
		Preferences: map[string]any{"language": "en", "communication_style": "formal"},
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.UpsertUser(ctx, User{
		ID: "U123", Username: "hugo",
		Preferences: map[string]any{"language": "pt"},
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	prefs, err := store.GetUserPreferences(ctx, "U123")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs["language"] != "pt" {
		t.Errorf("language = %v, want pt", prefs["language"])
	}
	// replaced wholesale, so the formal style is gone and the default applies
	if prefs["communication_style"] != "casual" {
		t.Errorf("communication_style = %v, want casual after replace", prefs["communication_style"])
	}
}

func TestGetUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.UpsertUser(ctx, User{ID: "U123", Username: "hugo", DisplayName: "Hugo"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	u, err := store.GetUser(ctx, "U123")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Username != "hugo" || u.DisplayName != "Hugo" {
		t.Errorf("got %q/%q, want hugo/Hugo", u.Username, u.DisplayName)
	}
	if u.Preferences["language"] != "es" {
		t.Errorf("language = %v, want default es", u.Preferences["language"])
	}

	if _, err := store.GetUser(ctx, "nobody"); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestActiveContextAndStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendTurn(ctx, Turn{
		UserID: "U123", ChannelID: "C1", Role: RoleUser, Content: "hola",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.UpdateActiveContext(ctx, "U123:C1", "U123", "C1",
		"Temas principales: saludos.", []string{"general"}, time.Hour); err != nil {
		t.Fatalf("update active context: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 1 {
		t.Errorf("TotalUsers = %d, want 1", stats.TotalUsers)
	}
	if stats.TotalTurns != 1 {
		t.Errorf("TotalTurns = %d, want 1", stats.TotalTurns)
	}
	if stats.ActiveContexts != 1 {
		t.Errorf("ActiveContexts = %d, want 1", stats.ActiveContexts)
	}
}

func TestFindIdleUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// active user with a fresh turn
	if _, err := store.AppendTurn(ctx, Turn{
		UserID: "U_ACTIVE", ChannelID: "C1", Role: RoleUser, Content: "hola",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// idle user with one old turn
	if err := store.EnsureUser(ctx, "U_IDLE"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	old := time.Now().UTC().Add(-72 * time.Hour)
	if _, err := store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, channel_id, role, content, created_at)
		VALUES ('old', 'U_IDLE', 'C1', 'user', 'hace días', ?)`, old); err != nil {
		t.Fatalf("insert old turn: %v", err)
	}

	idle, err := store.FindIdleUsers(ctx, 48*time.Hour)
	if err != nil {
		t.Fatalf("find idle users: %v", err)
	}
	if len(idle) != 1 {
		t.Fatalf("got %d idle users, want 1", len(idle))
	}
	if idle[0].UserID != "U_IDLE" {
		t.Errorf("idle user = %q, want U_IDLE", idle[0].UserID)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendTurn(ctx, Turn{
		UserID: "U123", ChannelID: "C1", Role: RoleUser, Content: "reciente",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// backdate a second turn past the retention window
	old := time.Now().UTC().AddDate(0, 0, -120)
	if _, err := store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, channel_id, role, content, created_at)
		VALUES ('old-turn', 'U123', 'C1', 'user', 'antiguo', ?)`, old); err != nil {
		t.Fatalf("insert old turn: %v", err)
	}
	// an already-expired context row
	if err := store.UpdateActiveContext(ctx, "stale", "U123", "C1", "viejo", nil, -time.Hour); err != nil {
		t.Fatalf("update active context: %v", err)
	}

	res, err := store.PurgeOlderThan(ctx, 90)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if res.TurnsDeleted != 1 {
		t.Errorf("TurnsDeleted = %d, want 1", res.TurnsDeleted)
	}
	if res.ContextsDeleted != 1 {
		t.Errorf("ContextsDeleted = %d, want 1", res.ContextsDeleted)
	}

	turns, err := store.GetHistory(ctx, "U123", "C1", 50, 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "reciente" {
		t.Errorf("got %d turns after purge, want only the recent one", len(turns))
	}

	if _, err := store.PurgeOlderThan(ctx, 0); err == nil {
		t.Error("expected error for non-positive days")
	}
}
