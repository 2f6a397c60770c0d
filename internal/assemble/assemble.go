// Package assemble turns a fan's record into the prompt for one
// generation call, and parses what comes back into sendable messages.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YallaPapi/chatter/internal/memory"
	"github.com/YallaPapi/chatter/internal/phase"
	"github.com/YallaPapi/chatter/internal/scenario"
)

const (
	defaultHistoryWindow = 20
	defaultPhraseWindow  = 15
)

// Assembly is everything the generator needs for one call.
type Assembly struct {
	System  string
	History []memory.Message
}

// Builder renders assemblies against one loaded scenario.
type Builder struct {
	Scenario *scenario.Scenario

	// HistoryWindow and PhraseWindow bound how much of the record goes
	// into the prompt. Zero means the default.
	HistoryWindow int
	PhraseWindow  int
}

func (b *Builder) historyWindow() int {
	if b.HistoryWindow > 0 {
		return b.HistoryWindow
	}
	return defaultHistoryWindow
}

func (b *Builder) phraseWindow() int {
	if b.PhraseWindow > 0 {
		return b.PhraseWindow
	}
	return defaultPhraseWindow
}

// Phase directives tell the model what this turn is for. The funnel
// logic lives in the state machine; these only shape tone and goal.
var phaseDirectives = map[phase.Phase]string{
	phase.Opening:    "This is a brand new conversation. Be friendly and a little playful. Ask something light about him.",
	phase.Location:   "He just mentioned where he is from. React to it naturally, find something relatable to say about the place, then move the conversation to him.",
	phase.SmallTalk:  "Build rapport. Reference things you know about him. Be curious about his life. Do not bring up OnlyFans.",
	phase.Deflection: "He is pushing to meet or asking for pictures. Deflect warmly without shutting him down. Use the backstory if it helps explain why you cannot meet. Do not mention OnlyFans yet unless he pushes again.",
	phase.OFPitch:    "He has pushed enough. Pivot to your OnlyFans naturally, frame it as where you actually share yourself. Include the link once. Keep it light, never desperate.",
	phase.PostPitch:  "The pitch already happened. If he subscribed, be warm and appreciative. If not, keep rapport without repeating the pitch every message.",
	phase.Cold:       "He went quiet or said no. Keep replies short and low effort. One casual line, no pressure, no pitch.",
}

// Build renders the system prompt and history window for one turn.
func (b *Builder) Build(rec *memory.FanRecord) Assembly {
	p := b.Scenario.Persona
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s, %d, from %s. %s\n", p.Name, p.Age, p.Location, p.Bio)
	sb.WriteString("You are chatting with a fan in DMs. Stay in character no matter what. Text like a real person: lowercase, casual, occasional emoji, never long paragraphs.\n")
	sb.WriteString("Separate multiple messages with || and attach an image with [IMG:tag] when it genuinely fits.\n\n")

	fmt.Fprintf(&sb, "Current goal: %s\n", phaseDirectives[rec.State.Phase])
	if rec.SobStory != "" {
		story := b.Scenario.Story(rec.SobStory)
		fmt.Fprintf(&sb, "Your backstory if deflecting or explaining money stress: %s\n", story.Text)
	}
	if rec.State.Phase == phase.OFPitch || rec.State.Phase == phase.PostPitch {
		fmt.Fprintf(&sb, "Your OnlyFans link: %s\n", p.OFLink)
	}

	fmt.Fprintf(&sb, "\nWhat you know about him: %s\n", rec.Profile.Summary())
	fmt.Fprintf(&sb, "Rapport level: %d of 5. Conversations so far: %d.\n", rec.State.RapportLevel, rec.State.ConversationCount)
	fmt.Fprintf(&sb, "Tone: %s\n", rec.Mood.StyleHint())

	if topics := discussedTopics(rec); topics != "" {
		fmt.Fprintf(&sb, "Topics already covered, do not reopen them as if new: %s\n", topics)
	}

	if recent := rec.RecentPhrases(b.phraseWindow()); len(recent) > 0 {
		sb.WriteString("\nLines you already sent him. Never repeat any of these or close variants:\n")
		for _, ph := range recent {
			fmt.Fprintf(&sb, "- %s\n", ph)
		}
	}

	return Assembly{
		System:  sb.String(),
		History: rec.RecentMessages(b.historyWindow()),
	}
}

func discussedTopics(rec *memory.FanRecord) string {
	if len(rec.Topics) == 0 {
		return ""
	}
	topics := make([]string, 0, len(rec.Topics))
	for t := range rec.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return strings.Join(topics, ", ")
}
