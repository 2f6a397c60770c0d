// Package mood tracks a slow-moving emotional read on each fan. Three
// floats in [0,1] drift a little with every message and feed a style
// hint into prompt assembly.
package mood

import (
	"fmt"

	"github.com/YallaPapi/chatter/internal/intent"
)

type Mood struct {
	Engagement float64 `json:"engagement"`
	Warmth     float64 `json:"warmth"`
	Patience   float64 `json:"patience"`
}

// New starts a fan at neutral with a little patience in reserve.
func New() Mood {
	return Mood{Engagement: 0.5, Warmth: 0.5, Patience: 0.7}
}

// Update drifts the mood from one classified message. Short one-word
// messages read as disengagement, walls of text as investment.
func (m *Mood) Update(in intent.Intent, messageLen int) {
	switch in {
	case intent.Compliment:
		m.Warmth += 0.10
		m.Engagement += 0.05
	case intent.Question:
		m.Engagement += 0.05
	case intent.Sexual:
		m.Patience -= 0.10
	case intent.Meetup, intent.PicRequest:
		m.Patience -= 0.05
	case intent.Complaint:
		m.Warmth -= 0.15
		m.Patience -= 0.10
	case intent.Purchase:
		m.Warmth += 0.10
		m.Patience += 0.10
	case intent.Farewell:
		m.Engagement -= 0.05
	}

	if messageLen > 0 && messageLen < 8 {
		m.Engagement -= 0.05
	} else if messageLen > 120 {
		m.Engagement += 0.05
	}

	m.Engagement = clamp(m.Engagement)
	m.Warmth = clamp(m.Warmth)
	m.Patience = clamp(m.Patience)
}

// StyleHint renders the mood as a short directive for the prompt.
func (m Mood) StyleHint() string {
	var tone string
	switch {
	case m.Warmth >= 0.7 && m.Engagement >= 0.6:
		tone = "be warm and flirty, he is invested"
	case m.Warmth >= 0.7:
		tone = "be warm but keep messages short"
	case m.Warmth < 0.3:
		tone = "be polite but distant, he has been rude"
	case m.Engagement < 0.3:
		tone = "he is drifting, ask something about him to pull him back"
	default:
		tone = "keep it casual and friendly"
	}
	if m.Patience < 0.3 {
		tone += "; he is getting pushy, do not reward pressure"
	}
	return tone
}

func (m Mood) String() string {
	return fmt.Sprintf("engagement=%.2f warmth=%.2f patience=%.2f", m.Engagement, m.Warmth, m.Patience)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
