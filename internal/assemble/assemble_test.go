package assemble

import (
	"strings"
	"testing"
	"time"

	"github.com/YallaPapi/chatter/internal/memory"
	"github.com/YallaPapi/chatter/internal/phase"
	"github.com/YallaPapi/chatter/internal/scenario"
)

func testRecord(t *testing.T) *memory.FanRecord {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := memory.NewFanRecord("instagram", "jake", now)
	rec.RecordInbound("hey", now, 6*time.Hour)
	rec.RecordOutbound("heyy you 😊", now)
	return rec
}

func TestBuildIncludesPersonaAndPhase(t *testing.T) {
	b := &Builder{Scenario: scenario.Default()}
	rec := testRecord(t)
	rec.State.Phase = phase.Deflection
	rec.SobStory = "rent"

	asm := b.Build(rec)
	if !strings.Contains(asm.System, scenario.Default().Persona.Name) {
		t.Fatal("system prompt missing persona name")
	}
	if !strings.Contains(asm.System, "Deflect warmly") {
		t.Fatal("system prompt missing deflection directive")
	}
	if !strings.Contains(asm.System, "roommate bailed") {
		t.Fatal("system prompt missing assigned sob story")
	}
	if strings.Contains(asm.System, scenario.Default().Persona.OFLink) {
		t.Fatal("OF link should not appear before the pitch phase")
	}
	if len(asm.History) != 2 {
		t.Fatalf("history = %d messages, want 2", len(asm.History))
	}
}

func TestBuildPitchIncludesLink(t *testing.T) {
	b := &Builder{Scenario: scenario.Default()}
	rec := testRecord(t)
	rec.State.Phase = phase.OFPitch
	asm := b.Build(rec)
	if !strings.Contains(asm.System, scenario.Default().Persona.OFLink) {
		t.Fatal("pitch prompt missing OF link")
	}
}

func TestBuildProfileNeverNull(t *testing.T) {
	b := &Builder{Scenario: scenario.Default()}
	asm := b.Build(testRecord(t))
	if !strings.Contains(asm.System, "nothing known about this fan yet") {
		t.Fatal("empty profile should still render a summary line")
	}
}

func TestBuildAntiRepetition(t *testing.T) {
	b := &Builder{Scenario: scenario.Default(), PhraseWindow: 2}
	rec := testRecord(t)
	rec.RecordOutbound("first line", rec.LastActive)
	rec.RecordOutbound("second line", rec.LastActive)
	rec.RecordOutbound("third line", rec.LastActive)

	asm := b.Build(rec)
	if strings.Contains(asm.System, "first line") {
		t.Fatal("phrase window not applied")
	}
	if !strings.Contains(asm.System, "second line") || !strings.Contains(asm.System, "third line") {
		t.Fatal("recent phrases missing from prompt")
	}
}

func TestBuildTopics(t *testing.T) {
	b := &Builder{Scenario: scenario.Default()}
	rec := testRecord(t)
	rec.MarkTopic("work")
	rec.MarkTopic("gym")
	asm := b.Build(rec)
	if !strings.Contains(asm.System, "gym, work") {
		t.Fatal("topics missing or unsorted in prompt")
	}
}

func TestBuildHistoryWindow(t *testing.T) {
	b := &Builder{Scenario: scenario.Default(), HistoryWindow: 3}
	rec := testRecord(t)
	for i := 0; i < 10; i++ {
		rec.RecordInbound("filler", rec.LastActive, 6*time.Hour)
	}
	asm := b.Build(rec)
	if len(asm.History) != 3 {
		t.Fatalf("history = %d, want 3", len(asm.History))
	}
}
