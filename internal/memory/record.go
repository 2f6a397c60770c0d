package memory

import (
	"regexp"
	"strings"
	"time"

	"github.com/YallaPapi/chatter/internal/mood"
	"github.com/YallaPapi/chatter/internal/phase"
)

// Message roles within a fan's history.
const (
	RoleFan     = "fan"
	RoleCreator = "creator"
)

// Caps bounds the per-fan history. Zero values fall back to the
// defaults below.
type Caps struct {
	Messages int
	Phrases  int
}

const (
	defaultMessageCap = 100
	defaultPhraseCap  = 50
)

func (c Caps) messages() int {
	if c.Messages > 0 {
		return c.Messages
	}
	return defaultMessageCap
}

func (c Caps) phrases() int {
	if c.Phrases > 0 {
		return c.Phrases
	}
	return defaultPhraseCap
}

// Message is one turn of a conversation, tagged with the funnel phase
// the fan was in when it happened.
type Message struct {
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Phase     phase.Phase `json:"phase,omitempty"`
}

// FanRecord is the full remembered state for one fan: bounded message
// history, every phrase we have sent them, the extracted profile, the
// funnel state, and which topics have already come up.
type FanRecord struct {
	FanID         string          `json:"fan_id"`
	Platform      string          `json:"platform"`
	Username      string          `json:"username"`
	CreatedAt     time.Time       `json:"created_at"`
	LastActive    time.Time       `json:"last_active"`
	Messages      []Message       `json:"messages"`
	UsedPhrases   []string        `json:"used_phrases"`
	Profile       Profile         `json:"profile"`
	State         *phase.State    `json:"state"`
	Mood          mood.Mood       `json:"mood"`
	Topics        map[string]bool `json:"topics,omitempty"`
	SobStory      string          `json:"sob_story,omitempty"`
	RapportBumped bool            `json:"rapport_bumped"`

	Caps Caps `json:"-"`
}

// NewFanRecord starts a fresh record in the opening phase.
func NewFanRecord(platform, username string, now time.Time) *FanRecord {
	return &FanRecord{
		FanID:      FanID(platform, username),
		Platform:   platform,
		Username:   username,
		CreatedAt:  now,
		LastActive: now,
		State:      phase.NewState(),
		Mood:       mood.New(),
		Topics:     map[string]bool{},
	}
}

const maxRapport = 5

// RecordInbound appends a fan message and keeps the session bookkeeping
// current. It reports whether this message opened a new session, which
// happens when the fan returns after more than gap of silence. Rapport
// grows by one per returning session, capped.
func (r *FanRecord) RecordInbound(content string, at time.Time, gap time.Duration) bool {
	newSession := false
	if !r.LastActive.IsZero() && at.Sub(r.LastActive) > gap && len(r.Messages) > 0 {
		newSession = true
		r.State.ConversationCount++
		r.RapportBumped = false
	}
	if !r.RapportBumped && newSession && r.State.RapportLevel < maxRapport {
		r.State.RapportLevel++
		r.RapportBumped = true
	}
	r.LastActive = at
	r.State.FanMessages++
	r.appendMessage(Message{Role: RoleFan, Content: content, Timestamp: at, Phase: r.State.Phase})
	return newSession
}

// RecordOutbound appends one sent message and remembers its normalized
// phrase so the assembler can steer generation away from repeats.
func (r *FanRecord) RecordOutbound(content string, at time.Time) {
	r.LastActive = at
	r.appendMessage(Message{Role: RoleCreator, Content: content, Timestamp: at, Phase: r.State.Phase})
	r.rememberPhrase(content)
}

func (r *FanRecord) appendMessage(m Message) {
	r.Messages = append(r.Messages, m)
	if limit := r.Caps.messages(); len(r.Messages) > limit {
		r.Messages = r.Messages[len(r.Messages)-limit:]
	}
}

func (r *FanRecord) rememberPhrase(content string) {
	norm := NormalizePhrase(content)
	if norm == "" {
		return
	}
	// set semantics: a re-sent phrase moves to the end instead of
	// accumulating copies
	for i, p := range r.UsedPhrases {
		if p == norm {
			r.UsedPhrases = append(r.UsedPhrases[:i], r.UsedPhrases[i+1:]...)
			break
		}
	}
	r.UsedPhrases = append(r.UsedPhrases, norm)
	if limit := r.Caps.phrases(); len(r.UsedPhrases) > limit {
		r.UsedPhrases = r.UsedPhrases[len(r.UsedPhrases)-limit:]
	}
}

// RecentPhrases returns up to n of the most recently sent phrases,
// newest last.
func (r *FanRecord) RecentPhrases(n int) []string {
	if n <= 0 || len(r.UsedPhrases) == 0 {
		return nil
	}
	if n > len(r.UsedPhrases) {
		n = len(r.UsedPhrases)
	}
	out := make([]string, n)
	copy(out, r.UsedPhrases[len(r.UsedPhrases)-n:])
	return out
}

// PhraseUsed reports whether a candidate reply collides with something
// already sent to this fan.
func (r *FanRecord) PhraseUsed(content string) bool {
	norm := NormalizePhrase(content)
	if norm == "" {
		return false
	}
	for _, p := range r.UsedPhrases {
		if p == norm {
			return true
		}
	}
	return false
}

// RecentMessages returns up to n most recent turns, oldest first.
func (r *FanRecord) RecentMessages(n int) []Message {
	if n <= 0 || len(r.Messages) == 0 {
		return nil
	}
	if n > len(r.Messages) {
		n = len(r.Messages)
	}
	out := make([]Message, n)
	copy(out, r.Messages[len(r.Messages)-n:])
	return out
}

// MergeProfile applies extraction candidates and reports how many
// changed the profile.
func (r *FanRecord) MergeProfile(cands []Candidate, at time.Time) int {
	merged := 0
	for _, c := range cands {
		if r.Profile.Merge(c, at) {
			merged++
		}
	}
	return merged
}

// MarkTopic records that a topic has come up. Topics are never unmarked.
func (r *FanRecord) MarkTopic(topic string) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return
	}
	if r.Topics == nil {
		r.Topics = map[string]bool{}
	}
	r.Topics[topic] = true
}

// TopicDiscussed reports whether a topic was already covered.
func (r *FanRecord) TopicDiscussed(topic string) bool {
	return r.Topics[strings.ToLower(strings.TrimSpace(topic))]
}

var phraseStrip = regexp.MustCompile(`[^a-z0-9 ]+`)
var phraseSpaces = regexp.MustCompile(`\s+`)

// NormalizePhrase canonicalizes a sent message for repeat detection:
// lowercase, punctuation stripped, whitespace collapsed.
func NormalizePhrase(s string) string {
	s = strings.ToLower(s)
	s = phraseStrip.ReplaceAllString(s, "")
	s = phraseSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
