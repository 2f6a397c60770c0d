package mood

import (
	"testing"

	"github.com/YallaPapi/chatter/internal/intent"
)

func TestUpdateDrift(t *testing.T) {
	m := New()
	m.Update(intent.Compliment, 40)
	if m.Warmth <= 0.5 {
		t.Fatalf("compliment should raise warmth, got %f", m.Warmth)
	}

	m = New()
	m.Update(intent.Complaint, 40)
	if m.Warmth >= 0.5 || m.Patience >= 0.7 {
		t.Fatalf("complaint should drop warmth and patience, got %s", m.String())
	}

	m = New()
	m.Update(intent.Chitchat, 3)
	if m.Engagement >= 0.5 {
		t.Fatalf("one-word message should drop engagement, got %f", m.Engagement)
	}

	m = New()
	m.Update(intent.Chitchat, 200)
	if m.Engagement <= 0.5 {
		t.Fatalf("long message should raise engagement, got %f", m.Engagement)
	}
}

func TestUpdateClamped(t *testing.T) {
	m := New()
	for i := 0; i < 50; i++ {
		m.Update(intent.Complaint, 40)
	}
	if m.Warmth != 0 || m.Patience != 0 {
		t.Fatalf("floors not clamped: %s", m.String())
	}
	for i := 0; i < 50; i++ {
		m.Update(intent.Purchase, 40)
	}
	if m.Patience != 1 {
		t.Fatalf("ceiling not clamped: %s", m.String())
	}
}

func TestStyleHint(t *testing.T) {
	m := Mood{Engagement: 0.8, Warmth: 0.8, Patience: 0.8}
	if m.StyleHint() != "be warm and flirty, he is invested" {
		t.Fatalf("hint = %q", m.StyleHint())
	}

	pushy := Mood{Engagement: 0.5, Warmth: 0.5, Patience: 0.1}
	hint := pushy.StyleHint()
	if hint == "" {
		t.Fatal("empty hint")
	}
	if want := "keep it casual and friendly; he is getting pushy, do not reward pressure"; hint != want {
		t.Fatalf("hint = %q, want %q", hint, want)
	}
}
