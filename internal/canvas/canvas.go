// Package canvas builds shareable markdown documents out of conversations:
// automatic summaries, knowledge-base pages, project docs and meeting notes.
package canvas

import (
	"fmt"
	"strings"
	"time"

	"github.com/hvergara/dona/internal/analysis"
)

// Document is a rendered canvas ready to post or serve.
type Document struct {
	Title    string
	Markdown string
}

var decisionKeywords = []string{"decidimos", "acordamos", "vamos a", "haremos", "implementar"}
var taskKeywords = []string{"task", "tarea", "hacer", "implementar", "crear", "desarrollar"}
var fileExtensions = []string{".py", ".js", ".go", ".md", ".json", ".txt"}

// BuildSummary creates the conversation-summary document from recent turns.
func BuildSummary(channelName string, turns []analysis.Turn) Document {
	if channelName == "" {
		channelName = "Canal"
	}
	var userText strings.Builder
	for _, t := range turns {
		if t.Role == "user" {
			userText.WriteString(t.Content)
			userText.WriteString(" ")
		}
	}
	topics := analysis.ExtractTopics(userText.String())

	md := fmt.Sprintf(summaryTemplate,
		keyPoints(turns, topics),
		decisions(turns),
		tasks(turns),
		resources(turns),
		time.Now().UTC().Format("2006-01-02 15:04"),
		channelName,
	)
	return Document{
		Title:    "📊 Resumen - " + channelName,
		Markdown: md,
	}
}

// KnowledgeParams feed the knowledge-base template.
type KnowledgeParams struct {
	Topic        string
	Description  string
	UsageGuide   string
	Resources    []string
	Tips         []string
	Tags         []string
	Contributors []string
}

// BuildKnowledge creates a knowledge-base page for a topic.
func BuildKnowledge(p KnowledgeParams) Document {
	now := time.Now().UTC().Format("2006-01-02")
	md := fmt.Sprintf(knowledgeTemplate,
		p.Topic,
		orPlaceholder(p.Description, "*(Pendiente de documentar)*"),
		orPlaceholder(p.UsageGuide, "*(Pendiente de documentar)*"),
		bulletList(p.Resources, "*(Sin recursos aún)*"),
		bulletList(p.Tips, "*(Sin tips aún)*"),
		orPlaceholder(strings.Join(p.Tags, ", "), "*(sin tags)*"),
		now,
		now,
		orPlaceholder(strings.Join(p.Contributors, ", "), "Dona"),
	)
	return Document{
		Title:    "🧠 " + p.Topic + " - Knowledge Base",
		Markdown: md,
	}
}

// ProjectParams feed the project-documentation template.
type ProjectParams struct {
	Name         string
	Objective    string
	Requirements []string
	Architecture string
	Status       string
	NextSteps    []string
	Team         []string
}

// BuildProject creates a project documentation page.
func BuildProject(p ProjectParams) Document {
	md := fmt.Sprintf(projectTemplate,
		p.Name,
		orPlaceholder(p.Objective, "*(Pendiente de definir)*"),
		bulletList(p.Requirements, "*(Sin requisitos aún)*"),
		orPlaceholder(p.Architecture, "*(Pendiente de documentar)*"),
		orPlaceholder(p.Status, "En progreso"),
		bulletList(p.NextSteps, "*(Sin próximos pasos definidos)*"),
		orPlaceholder(strings.Join(p.Team, ", "), "*(sin asignar)*"),
		time.Now().UTC().Format("2006-01-02"),
	)
	return Document{
		Title:    "🚀 " + p.Name,
		Markdown: md,
	}
}

// MeetingParams feed the meeting-notes template.
type MeetingParams struct {
	Title        string
	Date         string
	Participants []string
	Agenda       []string
	Discussion   []string
	Decisions    []string
	ActionItems  []string
	Facilitator  string
}

// BuildMeeting creates a meeting-notes page.
func BuildMeeting(p MeetingParams) Document {
	date := p.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	md := fmt.Sprintf(meetingTemplate,
		p.Title,
		date,
		bulletList(p.Participants, "*(sin registrar)*"),
		bulletList(p.Agenda, "*(sin agenda)*"),
		bulletList(p.Discussion, "*(sin notas)*"),
		bulletList(p.Decisions, "*(sin decisiones)*"),
		checkList(p.ActionItems, "- [ ] *(sin acciones)*"),
		orPlaceholder(p.Facilitator, "Dona"),
	)
	return Document{
		Title:    "📅 " + p.Title,
		Markdown: md,
	}
}

// keyPoints prefers the detected topics and falls back to the longest
// recent user messages.
func keyPoints(turns []analysis.Turn, topics []string) string {
	if len(topics) > 0 && !(len(topics) == 1 && topics[0] == "general") {
		var b strings.Builder
		for i, topic := range topics {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", topic)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var points []string
	for _, t := range tail(turns, 10) {
		if t.Role == "user" && len(t.Content) > 50 {
			points = append(points, "- "+truncate(t.Content, 100))
		}
	}
	if len(points) > 3 {
		points = points[:3]
	}
	if len(points) == 0 {
		return "- *(No se identificaron puntos clave específicos)*"
	}
	return strings.Join(points, "\n")
}

func decisions(turns []analysis.Turn) string {
	var found []string
	for _, t := range tail(turns, 20) {
		lower := strings.ToLower(t.Content)
		for _, kw := range decisionKeywords {
			if strings.Contains(lower, kw) {
				found = append(found, "- "+truncate(t.Content, 100))
				break
			}
		}
	}
	if len(found) > 3 {
		found = found[:3]
	}
	if len(found) == 0 {
		return "- *(No se identificaron decisiones específicas)*"
	}
	return strings.Join(found, "\n")
}

func tasks(turns []analysis.Turn) string {
	var found []string
	for _, t := range tail(turns, 15) {
		lower := strings.ToLower(t.Content)
		for _, kw := range taskKeywords {
			if strings.Contains(lower, kw) {
				found = append(found, "- [ ] "+truncate(t.Content, 80))
				break
			}
		}
	}
	if len(found) > 4 {
		found = found[:4]
	}
	if len(found) == 0 {
		return "- [ ] *(No se identificaron tareas específicas)*"
	}
	return strings.Join(found, "\n")
}

func resources(turns []analysis.Turn) string {
	var found []string
	for _, t := range tail(turns, 20) {
		lower := strings.ToLower(t.Content)
		switch {
		case strings.Contains(t.Content, "http") || strings.Contains(t.Content, "www."):
			found = append(found, "- "+truncate(t.Content, 100))
		case containsAnyOf(lower, fileExtensions):
			found = append(found, "- 📄 "+truncate(t.Content, 80))
		}
	}
	if len(found) > 3 {
		found = found[:3]
	}
	if len(found) == 0 {
		return "- *(No se identificaron recursos específicos)*"
	}
	return strings.Join(found, "\n")
}

func tail(turns []analysis.Turn, n int) []analysis.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func containsAnyOf(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func bulletList(items []string, placeholder string) string {
	if len(items) == 0 {
		return "- " + placeholder
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func checkList(items []string, placeholder string) string {
	if len(items) == 0 {
		return placeholder
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
