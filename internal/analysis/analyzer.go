// Package analysis classifies chat messages with fixed keyword and pattern
// tables: topics, sentiment, intent, entities, urgency and complexity. All
// functions are pure; the tables carry the Spanish-first vocabulary the bot
// is deployed with, plus a few English loanwords users mix in.
package analysis

import (
	"regexp"
	"strings"
)

// Sentiment labels.
const (
	SentimentPositive    = "positive"
	SentimentNegative    = "negative"
	SentimentNeutral     = "neutral"
	SentimentQuestioning = "questioning"
)

// Intent labels, in cascade order.
const (
	IntentHelpRequest    = "help_request"
	IntentAcknowledgment = "acknowledgment"
	IntentIssueReport    = "issue_report"
	IntentTaskRequest    = "task_request"
	IntentGreeting       = "greeting"
	IntentInfoSeeking    = "information_seeking"
)

// Urgency and complexity levels.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Entities holds the token lists extracted from a message.
type Entities struct {
	Names        []string `json:"names"`
	Technologies []string `json:"technologies"`
	Projects     []string `json:"projects"`
	Commands     []string `json:"commands"`
}

// Analysis is the full classification of a single message.
type Analysis struct {
	Topics     []string `json:"topics"`
	Sentiment  string   `json:"sentiment"`
	Intent     string   `json:"intent"`
	Entities   Entities `json:"entities"`
	Urgency    string   `json:"urgency"`
	Complexity string   `json:"complexity"`
}

// keywordEntry pairs a label with its keyword set. Tables are ordered
// slices, not maps: tie-breaking and cascade precedence depend on order.
type keywordEntry struct {
	label    string
	keywords []string
}

var topicTable = []keywordEntry{
	{"technical", []string{"error", "bug", "código", "app", "bot", "servidor", "deploy", "api"}},
	{"personal", []string{"nombre", "soy", "me llamo", "trabajo", "empresa", "equipo"}},
	{"help", []string{"ayuda", "cómo", "puedes", "necesito", "problema", "soporte"}},
	{"casual", []string{"hola", "gracias", "bien", "genial", "excelente", "bueno"}},
	{"planning", []string{"proyecto", "tarea", "calendario", "planear", "hacer", "pendiente"}},
}

var sentimentTable = []keywordEntry{
	{SentimentPositive, []string{"genial", "excelente", "perfecto", "bueno", "gracias", "increíble"}},
	{SentimentNegative, []string{"problema", "error", "mal", "horrible", "falla", "roto"}},
	{SentimentNeutral, []string{"ok", "bien", "normal", "regular"}},
	{SentimentQuestioning, []string{"cómo", "qué", "cuándo", "dónde", "por qué", "puedes"}},
}

// intentTable is an ordered rule cascade: the first matching rule wins.
var intentTable = []keywordEntry{
	{IntentHelpRequest, []string{"ayuda", "cómo", "puedes", "necesito"}},
	{IntentAcknowledgment, []string{"gracias", "perfecto", "genial"}},
	{IntentIssueReport, []string{"problema", "error", "falla"}},
	{IntentTaskRequest, []string{"hacer", "crear", "implementar"}},
}

var greetingPrefixes = []string{"hola", "buenos", "qué tal"}

var urgentKeywords = []string{"urgente", "inmediato", "ahora", "rápido", "emergency", "crítico"}
var mediumUrgencyKeywords = []string{"pronto", "necesito", "importante", "help"}

// techVocabulary is matched as lowercase substrings.
var techVocabulary = []string{"python", "react", "javascript", "slack", "redis", "sqlite", "api", "bot"}

var (
	namePattern    = regexp.MustCompile(`\b[A-Z][a-záéíóú]+`)
	commandPattern = regexp.MustCompile(`/\w+`)
)

// AnalyzeMessage runs the full classification of one message.
func AnalyzeMessage(text string) Analysis {
	return Analysis{
		Topics:     ExtractTopics(text),
		Sentiment:  AnalyzeSentiment(text),
		Intent:     DetectIntent(text),
		Entities:   ExtractEntities(text),
		Urgency:    AssessUrgency(text),
		Complexity: AssessComplexity(text),
	}
}

// ExtractTopics returns every topic whose keyword table matches the message,
// or ["general"] when none do. Multiple topics may apply at once.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)

	var topics []string
	for _, entry := range topicTable {
		if containsAny(lower, entry.keywords) {
			topics = append(topics, entry.label)
		}
	}
	if len(topics) == 0 {
		return []string{"general"}
	}
	return topics
}

// AnalyzeSentiment counts keyword hits per bucket and returns the bucket
// with the highest count. Ties resolve in table order; zero hits means
// neutral.
func AnalyzeSentiment(text string) string {
	lower := strings.ToLower(text)

	best := SentimentNeutral
	bestScore := 0
	for _, entry := range sentimentTable {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.label
			bestScore = score
		}
	}
	return best
}

// DetectIntent walks the intent cascade in order and returns the first
// matching label; greetings are matched by prefix, and anything else is
// information seeking.
func DetectIntent(text string) string {
	lower := strings.ToLower(text)

	for _, entry := range intentTable {
		if containsAny(lower, entry.keywords) {
			return entry.label
		}
	}
	for _, prefix := range greetingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return IntentGreeting
		}
	}
	return IntentInfoSeeking
}

// ExtractEntities pulls candidate names (capitalized words), known
// technologies (substring matches) and /commands out of the message.
func ExtractEntities(text string) Entities {
	lower := strings.ToLower(text)

	e := Entities{
		Names:    namePattern.FindAllString(text, -1),
		Commands: commandPattern.FindAllString(text, -1),
	}
	for _, tech := range techVocabulary {
		if strings.Contains(lower, tech) {
			e.Technologies = append(e.Technologies, tech)
		}
	}
	return e
}

// AssessUrgency maps the message to high/medium/low. High indicators are
// checked before medium; the default is low.
func AssessUrgency(text string) string {
	lower := strings.ToLower(text)

	if containsAny(lower, urgentKeywords) {
		return LevelHigh
	}
	if containsAny(lower, mediumUrgencyKeywords) {
		return LevelMedium
	}
	return LevelLow
}

// AssessComplexity scores the message by length, question marks and
// technology mentions: >30 words +2, >15 words +1, more than one question
// mark +1, +1 per technology entity. Score >=4 is high, >=2 medium.
func AssessComplexity(text string) string {
	wordCount := len(strings.Fields(text))
	questionMarks := strings.Count(text, "?")
	techTerms := len(ExtractEntities(text).Technologies)

	score := 0
	switch {
	case wordCount > 30:
		score += 2
	case wordCount > 15:
		score++
	}
	if questionMarks > 1 {
		score++
	}
	score += techTerms

	switch {
	case score >= 4:
		return LevelHigh
	case score >= 2:
		return LevelMedium
	default:
		return LevelLow
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
