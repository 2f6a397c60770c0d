package profile

import (
	"testing"

	"github.com/YallaPapi/chatter/internal/memory"
)

func findField(cands []memory.Candidate, field string) (memory.Candidate, bool) {
	for _, c := range cands {
		if c.Field == field {
			return c, true
		}
	}
	return memory.Candidate{}, false
}

func TestExtractName(t *testing.T) {
	cases := []struct {
		msg        string
		value      string
		confidence string
	}{
		{"my name is jake btw", "Jake", memory.ConfidenceExplicit},
		{"my name's Mike", "Mike", memory.ConfidenceExplicit},
		{"you can call me Tony", "Tony", memory.ConfidenceExplicit},
		{"I'm Jake", "Jake", memory.ConfidenceInferred},
	}
	for _, tc := range cases {
		c, ok := findField(Extract(tc.msg), memory.FieldName)
		if !ok {
			t.Errorf("Extract(%q): no name candidate", tc.msg)
			continue
		}
		if c.Value != tc.value || c.Confidence != tc.confidence {
			t.Errorf("Extract(%q) = %+v, want %s/%s", tc.msg, c, tc.value, tc.confidence)
		}
	}
}

func TestExtractNameRejectsMoodWords(t *testing.T) {
	for _, msg := range []string{"im tired", "I'm Bored honestly", "i'm good"} {
		if c, ok := findField(Extract(msg), memory.FieldName); ok {
			t.Errorf("Extract(%q) produced bogus name %+v", msg, c)
		}
	}
}

func TestExtractLocation(t *testing.T) {
	c, ok := findField(Extract("i live in san antonio now"), memory.FieldLocation)
	if !ok || c.Value != "San Antonio" || c.Confidence != memory.ConfidenceExplicit {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
	c, ok = findField(Extract("im from chicago"), memory.FieldLocation)
	if !ok || c.Value != "Chicago" {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
}

func TestExtractLocationNegationWindow(t *testing.T) {
	for _, msg := range []string{
		"i wish i lived in miami",
		"nah never im from texas they say",
	} {
		if c, ok := findField(Extract(msg), memory.FieldLocation); ok {
			t.Errorf("Extract(%q) should be suppressed by negation, got %+v", msg, c)
		}
	}
}

func TestExtractJob(t *testing.T) {
	c, ok := findField(Extract("i work as a personal trainer"), memory.FieldJob)
	if !ok || c.Value != "personal trainer" || c.Confidence != memory.ConfidenceExplicit {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
	c, ok = findField(Extract("im a mechanic so my hands are always dirty"), memory.FieldJob)
	if !ok || c.Value != "mechanic" || c.Confidence != memory.ConfidenceInferred {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
}

func TestExtractAge(t *testing.T) {
	c, ok := findField(Extract("im 28 btw"), memory.FieldAge)
	if !ok || c.Value != "28" || c.Confidence != memory.ConfidenceExplicit {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
	if _, ok := findField(Extract("im 12 years old"), memory.FieldAge); ok {
		t.Fatal("under-18 age should be rejected")
	}
	c, ok = findField(Extract("29m here"), memory.FieldAge)
	if !ok || c.Confidence != memory.ConfidenceInferred {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
}

func TestExtractInterests(t *testing.T) {
	cands := Extract("i love hiking and im big into crossfit")
	var got []string
	for _, c := range cands {
		if c.Field == memory.FieldInterest {
			got = append(got, c.Value)
		}
	}
	if len(got) != 2 {
		t.Fatalf("interests = %v, want 2", got)
	}
	if got[0] != "hiking" || got[1] != "crossfit" {
		t.Fatalf("interests = %v", got)
	}
}

func TestExtractFirstRulePerFieldWins(t *testing.T) {
	cands := Extract("my name is dave, call me big d")
	var names int
	for _, c := range cands {
		if c.Field == memory.FieldName {
			names++
			if c.Value != "Dave" {
				t.Fatalf("name = %q, want Dave", c.Value)
			}
		}
	}
	if names != 1 {
		t.Fatalf("got %d name candidates, want 1", names)
	}
}

func TestExtractRelationshipStatus(t *testing.T) {
	c, ok := findField(Extract("im single btw"), memory.FieldRelationship)
	if !ok || c.Value != "single" || c.Confidence != memory.ConfidenceExplicit {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
	c, ok = findField(Extract("just got divorced last month"), memory.FieldRelationship)
	if !ok || c.Value != "divorced" {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
	c, ok = findField(Extract("my wife left me last year"), memory.FieldRelationship)
	if !ok || c.Value != "single" || c.Confidence != memory.ConfidenceInferred {
		t.Fatalf("got %+v, ok=%v", c, ok)
	}
}

func TestExtractPlatformPreference(t *testing.T) {
	cases := []struct {
		msg   string
		value string
	}{
		{"add me on snap", "snapchat"},
		{"hit me on ig instead", "instagram"},
		{"im usually on telegram tbh", "telegram"},
	}
	for _, tc := range cases {
		c, ok := findField(Extract(tc.msg), memory.FieldPlatformPref)
		if !ok {
			t.Errorf("Extract(%q): no platform candidate", tc.msg)
			continue
		}
		if c.Value != tc.value {
			t.Errorf("Extract(%q) = %q, want %q", tc.msg, c.Value, tc.value)
		}
	}
}

func TestExtractEmpty(t *testing.T) {
	if cands := Extract("   "); cands != nil {
		t.Fatalf("Extract on blank = %v, want nil", cands)
	}
	if cands := Extract("lol ok"); len(cands) != 0 {
		t.Fatalf("Extract on smalltalk = %v", cands)
	}
}
