package analysis

import (
	"strings"
	"testing"
)

func TestAnalyzeConversationFlow(t *testing.T) {
	tests := []struct {
		name string
		turns []Turn
		wantType string
		wantContinuity float64
	}{
		{
			name:     "empty history",
			turns:    nil,
			wantType: FlowNewConversation,
		},
		{
			name: "single topic over recent turns",
			turns: []Turn{
				{Role: "user", Content: "el bot tiene un error"},
				{Role: "assistant", Content: "revisando el servidor"},
				{Role: "user", Content: "el deploy falló otra vez"},
			},
			wantType:       FlowFocusedDiscussion,
			wantContinuity: 1.0,
		},
		{
			name: "two topics",
			turns: []Turn{
				{Role: "user", Content: "el bot tiene un error"},
				{Role: "user", Content: "necesito ayuda"},
			},
			wantType:       FlowRelatedTopics,
			wantContinuity: 0.5,
		},
		{
			name: "many topics",
			turns: []Turn{
				{Role: "user", Content: "error en el api"},
				{Role: "user", Content: "me llamo Ana y trabajo en ventas"},
				{Role: "user", Content: "hay que planear el proyecto"},
			},
			wantType: FlowTopicJumping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := AnalyzeConversationFlow(tt.turns)
			if flow.FlowType != tt.wantType {
				t.Errorf("FlowType = %q, want %q", flow.FlowType, tt.wantType)
			}
			if tt.wantContinuity != 0 && flow.TopicContinuity != tt.wantContinuity {
				t.Errorf("TopicContinuity = %v, want %v", flow.TopicContinuity, tt.wantContinuity)
			}
			if flow.MessageCount != len(tt.turns) {
				t.Errorf("MessageCount = %d, want %d", flow.MessageCount, len(tt.turns))
			}
		})
	}
}

func TestFlowOnlyConsidersRecentTurns(t *testing.T) {
	// Older turns jump topics; the last three stay technical.
	turns := []Turn{
		{Role: "user", Content: "me llamo Ana"},
		{Role: "user", Content: "hay que planear el calendario"},
		{Role: "user", Content: "error en el bot"},
		{Role: "user", Content: "el servidor no responde"},
		{Role: "user", Content: "otro bug en el api"},
	}

	flow := AnalyzeConversationFlow(turns)
	if flow.FlowType != FlowFocusedDiscussion {
		t.Errorf("FlowType = %q, want %q", flow.FlowType, FlowFocusedDiscussion)
	}
	if flow.MessageCount != 5 {
		t.Errorf("MessageCount = %d, want 5", flow.MessageCount)
	}
}

func TestFilterRelevantKeepsTopicalTurns(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "hay que planear el calendario del equipo"},
		{Role: "user", Content: "el bot lanza un error al hacer deploy"},
		{Role: "assistant", Content: "el error viene del servidor, ya hay un fix"},
		{Role: "user", Content: "hola buenas"},
		{Role: "user", Content: "otro bug en el api de slack"},
	}
	current := AnalyzeMessage("sigue el error en el bot")

	kept := FilterRelevant(history, current.Topics, current.Intent, DefaultRelevanceParams())

	joined := ""
	for _, turn := range kept {
		joined += turn.Content + "|"
	}
	for _, want := range []string{"deploy", "servidor", "api de slack"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected a turn mentioning %q in %q", want, joined)
		}
	}
}

func TestFilterRelevantMinimumGuarantee(t *testing.T) {
	// Five turns with no topical or intent overlap with the current
	// message: the selection must still contain min(3, len) turns.
	history := []Turn{
		{Role: "user", Content: "hay que planear el calendario"},
		{Role: "user", Content: "me llamo Ana"},
		{Role: "user", Content: "hola buenos días"},
		{Role: "user", Content: "trabajo en la empresa"},
		{Role: "user", Content: "gracias"},
	}
	current := AnalyzeMessage("el deploy lanza un error urgente")

	kept := FilterRelevant(history, current.Topics, current.Intent, DefaultRelevanceParams())
	if len(kept) < 3 {
		t.Fatalf("expected at least 3 turns, got %d", len(kept))
	}
}

func TestFilterRelevantShortHistory(t *testing.T) {
	history := []Turn{{Role: "user", Content: "gracias"}}
	current := AnalyzeMessage("el deploy lanza un error")

	kept := FilterRelevant(history, current.Topics, current.Intent, DefaultRelevanceParams())
	if len(kept) != 1 {
		t.Fatalf("expected the single available turn, got %d", len(kept))
	}

	if kept := FilterRelevant(nil, current.Topics, current.Intent, DefaultRelevanceParams()); kept != nil {
		t.Errorf("expected nil for empty history, got %v", kept)
	}
}

func TestFilterRelevantCapsAtMaxTurns(t *testing.T) {
	var history []Turn
	for i := 0; i < 10; i++ {
		history = append(history, Turn{Role: "user", Content: "error en el bot"})
	}
	current := AnalyzeMessage("otro error en el bot")

	kept := FilterRelevant(history, current.Topics, current.Intent, DefaultRelevanceParams())
	if len(kept) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(kept))
	}
}

func TestContextSummary(t *testing.T) {
	relevant := []Turn{
		{Role: "user", Content: "Hugo reportó un error en el bot"},
		{Role: "assistant", Content: "el error del servidor ya está ubicado"},
	}
	flow := ConversationFlow{FlowType: FlowFocusedDiscussion}

	summary := ContextSummary(relevant, flow)
	if !strings.Contains(summary, "Hugo") {
		t.Errorf("summary missing name: %q", summary)
	}
	if !strings.Contains(summary, "technical") {
		t.Errorf("summary missing main topic: %q", summary)
	}
	if !strings.Contains(summary, FlowFocusedDiscussion) {
		t.Errorf("summary missing flow label: %q", summary)
	}
}

func TestContextSummaryEmpty(t *testing.T) {
	summary := ContextSummary(nil, ConversationFlow{FlowType: FlowNewConversation})
	if summary != "Nueva conversación sin contexto previo." {
		t.Errorf("unexpected summary: %q", summary)
	}
}

func TestResponseHints(t *testing.T) {
	tests := []struct {
		name string
		a    Analysis
		want string
	}{
		{"issue report", Analysis{Intent: IntentIssueReport}, "Reconocer el problema y ofrecer soluciones"},
		{"negative sentiment", Analysis{Sentiment: SentimentNegative}, "Usar tono empático y comprensivo"},
		{"high urgency", Analysis{Urgency: LevelHigh}, "Responder de manera directa y eficiente"},
		{"no rule applies", Analysis{Intent: IntentInfoSeeking, Sentiment: SentimentNeutral, Urgency: LevelLow}, DefaultHint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := ResponseHints(tt.a)
			found := false
			for _, h := range hints {
				if h == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("hints %v missing %q", hints, tt.want)
			}
		})
	}
}

func TestRecommendTone(t *testing.T) {
	tests := []struct {
		name  string
		a     Analysis
		style string
		want  string
	}{
		{"high urgency wins", Analysis{Urgency: LevelHigh, Sentiment: SentimentPositive}, "casual", ToneProfessionalHelpful},
		{"issue report wins", Analysis{Intent: IntentIssueReport, Sentiment: SentimentPositive}, "casual", ToneProfessionalHelpful},
		{"positive", Analysis{Sentiment: SentimentPositive}, "casual", ToneFriendlyEnthusiastic},
		{"negative", Analysis{Sentiment: SentimentNegative}, "casual", ToneEmpatheticSupportive},
		{"falls back to preference", Analysis{Sentiment: SentimentNeutral}, "formal", "formal"},
		{"empty preference defaults to casual", Analysis{Sentiment: SentimentNeutral}, "", ToneCasual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendTone(tt.a, tt.style); got != tt.want {
				t.Errorf("RecommendTone = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateSmartContext(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "el bot lanza un error"},
		{Role: "assistant", Content: "revisando el servidor"},
	}

	sc := GenerateSmartContext("sigue el error con el api", history, "casual", DefaultRelevanceParams())

	if sc.MessageAnalysis.Intent != IntentIssueReport {
		t.Errorf("Intent = %q", sc.MessageAnalysis.Intent)
	}
	if sc.RecommendedTone != ToneProfessionalHelpful {
		t.Errorf("Tone = %q", sc.RecommendedTone)
	}
	if len(sc.RelevantHistory) == 0 {
		t.Error("expected relevant history")
	}
	if sc.ContextSummary == "" {
		t.Error("expected non-empty summary")
	}
}
