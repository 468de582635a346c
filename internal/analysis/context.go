package analysis

import (
	"fmt"
	"strings"
)

// Turn is the minimal role/content view of a recorded message that the
// analyzer needs. It is also the shape handed to LLM providers.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Flow type labels.
const (
	FlowNewConversation   = "new_conversation"
	FlowFocusedDiscussion = "focused_discussion"
	FlowRelatedTopics     = "related_topics"
	FlowTopicJumping      = "topic_jumping"
)

// ConversationFlow summarizes how the recent conversation moves between
// topics.
type ConversationFlow struct {
	FlowType        string  `json:"flow_type"`
	TopicContinuity float64 `json:"topic_continuity"`
	MessageCount    int     `json:"message_count"`
}

// AnalyzeConversationFlow looks at the last three turns, counts the
// distinct topics across them, and labels the flow: one topic is a focused
// discussion, two are related topics, more is topic jumping. Continuity is
// 1/distinct-topics.
func AnalyzeConversationFlow(history []Turn) ConversationFlow {
	if len(history) == 0 {
		return ConversationFlow{FlowType: FlowNewConversation, TopicContinuity: 0}
	}

	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	distinct := map[string]bool{}
	for _, turn := range recent {
		for _, topic := range ExtractTopics(turn.Content) {
			distinct[topic] = true
		}
	}

	flowType := FlowTopicJumping
	switch {
	case len(distinct) == 1:
		flowType = FlowFocusedDiscussion
	case len(distinct) <= 2:
		flowType = FlowRelatedTopics
	}

	continuity := 1.0
	if len(distinct) > 0 {
		continuity = 1.0 / float64(len(distinct))
	}

	return ConversationFlow{
		FlowType:        flowType,
		TopicContinuity: continuity,
		MessageCount:    len(history),
	}
}

// RelevanceParams are the empirically tuned knobs of the relevance filter.
// They are configuration, not semantics: tests should assert scenarios,
// not these exact numbers.
type RelevanceParams struct {
	Window        int // how many trailing turns are considered
	TopicWeight   int // score per topic shared with the current message
	IntentWeight  int // score when the turn's intent equals the current one
	MinKeep       int // flat bonus applies while fewer than this many kept
	KeepThreshold int // keep turns scoring strictly above this
	MaxTurns      int // at most this many turns survive, most recent last
}

// DefaultRelevanceParams returns the production defaults.
func DefaultRelevanceParams() RelevanceParams {
	return RelevanceParams{
		Window:        10,
		TopicWeight:   2,
		IntentWeight:  3,
		MinKeep:       3,
		KeepThreshold: 2,
		MaxTurns:      5,
	}
}

// FilterRelevant selects the history turns worth carrying into the LLM
// context: each of the last Window turns is scored against the current
// message's topics and intent, with a flat bonus while fewer than MinKeep
// turns have been selected so the context never starves. Surviving turns
// keep their chronological order.
func FilterRelevant(history []Turn, currentTopics []string, currentIntent string, p RelevanceParams) []Turn {
	if len(history) == 0 {
		return nil
	}

	window := history
	if len(window) > p.Window {
		window = window[len(window)-p.Window:]
	}

	topicSet := map[string]bool{}
	for _, t := range currentTopics {
		topicSet[t] = true
	}

	var kept []Turn
	keptIdx := map[int]bool{}
	for i, turn := range window {
		score := 0
		for _, topic := range ExtractTopics(turn.Content) {
			if topicSet[topic] {
				score += p.TopicWeight
			}
		}
		if DetectIntent(turn.Content) == currentIntent {
			score += p.IntentWeight
		}
		if len(kept) < p.MinKeep {
			score++
		}
		if score > p.KeepThreshold {
			kept = append(kept, turn)
			keptIdx[i] = true
		}
	}

	// Minimum-context guarantee: when scoring starves the selection,
	// backfill with the most recent turns so the context never drops below
	// MinKeep while history is available.
	if len(kept) < p.MinKeep {
		for i := len(window) - 1; i >= 0 && len(kept) < p.MinKeep; i-- {
			if !keptIdx[i] {
				keptIdx[i] = true
			}
		}
		kept = kept[:0]
		for i, turn := range window {
			if keptIdx[i] {
				kept = append(kept, turn)
			}
		}
	}

	if len(kept) > p.MaxTurns {
		kept = kept[len(kept)-p.MaxTurns:]
	}
	return kept
}

// SmartContext is the analyzer's full product for one inbound message.
type SmartContext struct {
	MessageAnalysis Analysis
	Flow            ConversationFlow
	RelevantHistory []Turn
	ContextSummary  string
	ResponseHints   []string
	RecommendedTone string
}

// GenerateSmartContext classifies the current message, filters the history
// down to relevant turns, and derives the summary, hints and tone the
// response generator consumes. commStyle is the user's stored
// communication-style preference ("casual" when unknown).
func GenerateSmartContext(currentMessage string, history []Turn, commStyle string, p RelevanceParams) SmartContext {
	msgAnalysis := AnalyzeMessage(currentMessage)
	flow := AnalyzeConversationFlow(history)
	relevant := FilterRelevant(history, msgAnalysis.Topics, msgAnalysis.Intent, p)

	return SmartContext{
		MessageAnalysis: msgAnalysis,
		Flow:            flow,
		RelevantHistory: relevant,
		ContextSummary:  ContextSummary(relevant, flow),
		ResponseHints:   ResponseHints(msgAnalysis),
		RecommendedTone: RecommendTone(msgAnalysis, commStyle),
	}
}

// ContextSummary builds a short natural-language summary of the filtered
// turns: mentioned names (max two), the one or two most frequent topics,
// and the flow label.
func ContextSummary(relevant []Turn, flow ConversationFlow) string {
	if len(relevant) == 0 {
		return "Nueva conversación sin contexto previo."
	}

	var names []string
	seen := map[string]bool{}
	topicCounts := map[string]int{}
	var topicOrder []string

	for _, turn := range relevant {
		for _, name := range ExtractEntities(turn.Content).Names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		for _, topic := range ExtractTopics(turn.Content) {
			if topicCounts[topic] == 0 {
				topicOrder = append(topicOrder, topic)
			}
			topicCounts[topic]++
		}
	}

	var parts []string
	if len(names) > 0 {
		if len(names) > 2 {
			names = names[:2]
		}
		parts = append(parts, "Usuario mencionado: "+strings.Join(names, ", "))
	}
	if len(topicOrder) > 0 {
		parts = append(parts, "Temas principales: "+strings.Join(topTopics(topicOrder, topicCounts, 2), ", "))
	}
	parts = append(parts, fmt.Sprintf("Flujo: %s", flow.FlowType))

	return strings.Join(parts, ". ") + "."
}

// topTopics returns up to max topics by descending count, first-seen order
// breaking ties.
func topTopics(order []string, counts map[string]int, max int) []string {
	ranked := make([]string, len(order))
	copy(ranked, order)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}

// DefaultHint is the fallback response hint when no rule applies.
const DefaultHint = "Responder de manera natural y útil"

// ResponseHints derives short imperative suggestions for the response
// generator from the message analysis.
func ResponseHints(a Analysis) []string {
	var hints []string

	switch a.Intent {
	case IntentHelpRequest:
		hints = append(hints, "Proporcionar ayuda clara y paso a paso")
	case IntentIssueReport:
		hints = append(hints, "Reconocer el problema y ofrecer soluciones")
	case IntentGreeting:
		hints = append(hints, "Responder cordialmente y preguntar cómo ayudar")
	}

	switch a.Sentiment {
	case SentimentNegative:
		hints = append(hints, "Usar tono empático y comprensivo")
	case SentimentPositive:
		hints = append(hints, "Mantener energía positiva")
	}

	if a.Urgency == LevelHigh {
		hints = append(hints, "Responder de manera directa y eficiente")
	}

	if len(hints) == 0 {
		return []string{DefaultHint}
	}
	return hints
}

// Tone labels.
const (
	ToneProfessionalHelpful  = "professional_helpful"
	ToneFriendlyEnthusiastic = "friendly_enthusiastic"
	ToneEmpatheticSupportive = "empathetic_supportive"
	ToneCasual               = "casual"
)

// RecommendTone picks a single tone by priority: urgent or issue-reporting
// messages get a professional tone regardless of sentiment, then sentiment
// decides, then the user's stored communication style.
func RecommendTone(a Analysis, commStyle string) string {
	if commStyle == "" {
		commStyle = ToneCasual
	}

	switch {
	case a.Urgency == LevelHigh || a.Intent == IntentIssueReport:
		return ToneProfessionalHelpful
	case a.Sentiment == SentimentPositive:
		return ToneFriendlyEnthusiastic
	case a.Sentiment == SentimentNegative:
		return ToneEmpatheticSupportive
	default:
		return commStyle
	}
}
