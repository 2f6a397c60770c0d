package memory

import (
	"fmt"
	"strings"
	"time"
)

// Confidence grades of an extracted profile fact.
const (
	ConfidenceExplicit = "explicit"
	ConfidenceInferred = "inferred"
)

// Profile field names used by extraction candidates.
const (
	FieldName         = "name"
	FieldLocation     = "location"
	FieldJob          = "job"
	FieldAge          = "age"
	FieldRelationship = "relationship_status"
	FieldInterest     = "interest"
	FieldPlatformPref = "platform_preference"
)

// Fact is one remembered attribute of a fan together with how sure we
// are about it.
type Fact struct {
	Value      string    `json:"value"`
	Confidence string    `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (f Fact) known() bool { return f.Value != "" }

// Profile holds everything extracted about a fan across the whole
// conversation history.
type Profile struct {
	Name               Fact     `json:"name"`
	Location           Fact     `json:"location"`
	Job                Fact     `json:"job"`
	Age                Fact     `json:"age"`
	RelationshipStatus Fact     `json:"relationship_status"`
	Interests          []string `json:"interests,omitempty"`
	PlatformPrefs      []string `json:"platform_preferences,omitempty"`
}

// Candidate is a single extraction result proposed for merging into a
// profile.
type Candidate struct {
	Field      string
	Value      string
	Confidence string
}

// Merge folds a candidate into the profile. Explicit statements always
// win. Inferred candidates only fill empty fields or replace other
// inferred values; they never overwrite something the fan said outright.
func (p *Profile) Merge(c Candidate, at time.Time) bool {
	if c.Value == "" {
		return false
	}
	if c.Field == FieldInterest {
		return p.addTo(&p.Interests, c.Value)
	}
	if c.Field == FieldPlatformPref {
		return p.addTo(&p.PlatformPrefs, c.Value)
	}
	target := p.field(c.Field)
	if target == nil {
		return false
	}
	if target.known() && c.Confidence != ConfidenceExplicit && target.Confidence == ConfidenceExplicit {
		return false
	}
	if target.Value == c.Value && target.Confidence == c.Confidence {
		return false
	}
	*target = Fact{Value: c.Value, Confidence: c.Confidence, UpdatedAt: at}
	return true
}

func (p *Profile) field(name string) *Fact {
	switch name {
	case FieldName:
		return &p.Name
	case FieldLocation:
		return &p.Location
	case FieldJob:
		return &p.Job
	case FieldAge:
		return &p.Age
	case FieldRelationship:
		return &p.RelationshipStatus
	}
	return nil
}

func (p *Profile) addTo(set *[]string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	for _, have := range *set {
		if have == v {
			return false
		}
	}
	*set = append(*set, v)
	return true
}

// Summary renders the profile for prompt assembly. It always returns a
// usable string even when nothing is known yet.
func (p *Profile) Summary() string {
	var parts []string
	for _, kv := range []struct {
		label string
		fact  Fact
	}{
		{"name", p.Name},
		{"location", p.Location},
		{"job", p.Job},
		{"age", p.Age},
		{"relationship", p.RelationshipStatus},
	} {
		if kv.fact.known() {
			parts = append(parts, fmt.Sprintf("%s: %s", kv.label, kv.fact.Value))
		}
	}
	if len(p.Interests) > 0 {
		parts = append(parts, "interests: "+strings.Join(p.Interests, ", "))
	}
	if len(p.PlatformPrefs) > 0 {
		parts = append(parts, "prefers: "+strings.Join(p.PlatformPrefs, ", "))
	}
	if len(parts) == 0 {
		return "nothing known about this fan yet"
	}
	return strings.Join(parts, "; ")
}
