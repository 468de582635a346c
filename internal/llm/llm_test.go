package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	for _, p := range []string{"openrouter", "openai", "anthropic"} {
		if _, err := NewProvider(p, "", "some-model"); err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	if _, err := NewProvider("unknown", "key", "some-model"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryDefaultsToOpenRouter(t *testing.T) {
	provider, err := NewProvider("", "test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openrouter" {
		t.Errorf("expected name 'openrouter', got %q", provider.Name())
	}
	or, ok := provider.(*OpenRouterProvider)
	if !ok {
		t.Fatal("expected *OpenRouterProvider")
	}
	if or.model != DefaultOpenRouterModel {
		t.Errorf("model = %q, want default %q", or.model, DefaultOpenRouterModel)
	}
}

func TestFactoryReadsKeyFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	provider, err := NewProvider("openrouter", "", "some-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openrouter" {
		t.Errorf("expected name 'openrouter', got %q", provider.Name())
	}
}

func TestFactoryCreatesAnthropicProvider(t *testing.T) {
	provider, err := NewProvider("anthropic", "test-key", "claude-sonnet-4-5-20250929")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "anthropic" {
		t.Errorf("expected name 'anthropic', got %q", provider.Name())
	}
}

func TestFactoryCreatesOpenAIProvider(t *testing.T) {
	provider, err := NewProvider("openai", "test-key", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", provider.Name())
	}
}

func TestResponderBuildsMessageList(t *testing.T) {
	mock := NewMockProvider("test")
	r := NewResponder(mock)

	contextTurns := []Message{
		{Role: RoleUser, Content: "hola"},
		{Role: RoleAssistant, Content: "¡hola!"},
	}
	reply := r.Respond(context.Background(), "¿me ayudas con el deploy?", contextTurns)
	if reply != "mock response" {
		t.Errorf("reply = %q, want provider content", reply)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	req := mock.Calls[0]
	if len(req.Messages) != 4 {
		t.Fatalf("got %d messages, want system + 2 context + user", len(req.Messages))
	}
	if req.Messages[0].Role != RoleSystem || !strings.Contains(req.Messages[0].Content, "Dona") {
		t.Errorf("first message should be the persona prompt, got %+v", req.Messages[0])
	}
	if req.Messages[3].Content != "¿me ayudas con el deploy?" {
		t.Errorf("last message = %q, want the user message", req.Messages[3].Content)
	}
	if req.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", req.Temperature)
	}
	if req.MaxTokens != 1000 {
		t.Errorf("max tokens = %d, want 1000", req.MaxTokens)
	}
}

func TestResponderSkipsEmptyContextTurns(t *testing.T) {
	mock := NewMockProvider("test")
	r := NewResponder(mock)

	r.Respond(context.Background(), "hola", []Message{{Role: RoleUser, Content: ""}})
	if len(mock.Calls[0].Messages) != 2 {
		t.Errorf("got %d messages, want system + user only", len(mock.Calls[0].Messages))
	}
}

func TestResponderApologizesOnError(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = errors.New("upstream down")
	r := NewResponder(mock)

	reply := r.Respond(context.Background(), "hola", nil)
	if reply != ReplyTechnicalIssue {
		t.Errorf("reply = %q, want the technical-issue apology", reply)
	}
}

func TestResponderWithoutProvider(t *testing.T) {
	r := NewResponder(nil)
	reply := r.Respond(context.Background(), "hola", nil)
	if reply != ReplyNotConfigured {
		t.Errorf("reply = %q, want the not-configured notice", reply)
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, req); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}
	if _, err := rl.Complete(ctx, req); err == nil {
		t.Error("expected error due to rate limiting + context timeout")
	}
}

func TestRoles(t *testing.T) {
	if RoleSystem != "system" {
		t.Errorf("RoleSystem = %q, want 'system'", RoleSystem)
	}
	if RoleUser != "user" {
		t.Errorf("RoleUser = %q, want 'user'", RoleUser)
	}
	if RoleAssistant != "assistant" {
		t.Errorf("RoleAssistant = %q, want 'assistant'", RoleAssistant)
	}
}
