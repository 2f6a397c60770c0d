// Package profile extracts durable facts about a fan from raw message
// text. Extraction is rule-based: ordered regexes per field, each rule
// tagged with how much to trust what it matched.
package profile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/YallaPapi/chatter/internal/memory"
)

type rule struct {
	field      string
	confidence string
	re         *regexp.Regexp
}

// Rules run top to bottom; the first hit per field wins, so explicit
// statements sit above the looser inferred patterns.
var fieldRules = []rule{
	{memory.FieldName, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bmy name'?s?\s+(?:is\s+)?([a-zA-Z]+)`)},
	{memory.FieldName, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bi go by\s+([a-zA-Z]+)`)},
	{memory.FieldName, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bcall me\s+([a-zA-Z]+)`)},
	// capitalized word after a bare "i'm" is probably a name, but only probably
	{memory.FieldName, memory.ConfidenceInferred, regexp.MustCompile(`^(?:[Ii]'?m|[Ii]m|[Ii]t'?s)\s+([A-Z][a-z]{2,})\b`)},

	{memory.FieldLocation, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bi\s+live[ds]?\s+(?:in|near)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldLocation, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+from\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldLocation, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+based\s+in\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldLocation, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\bout\s+here\s+in\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldLocation, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\b([a-zA-Z]+(?:\s+[a-zA-Z]+)?)\s+born\s+and\s+raised`)},

	{memory.FieldJob, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bi\s+work\s+(?:as\s+an?\s+|in\s+|at\s+)([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldJob, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+an?\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)\s+(?:by\s+trade|for\s+work|for\s+a\s+living)`)},
	{memory.FieldJob, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bmy\s+job\s+is\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldJob, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+an?\s+(nurse|teacher|engineer|mechanic|trainer|bartender|barber|electrician|plumber|firefighter|cop|doctor|lawyer|accountant|contractor|welder|chef|realtor|trucker|marine|soldier)\b`)},

	{memory.FieldAge, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+(\d{2})\s*(?:years?\s+old|yo\b|btw\b|$)`)},
	{memory.FieldAge, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(\d{2})\s+years?\s+old\b`)},
	{memory.FieldAge, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\b(\d{2})\s*m\b`)},

	{memory.FieldRelationship, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+(single|married|divorced|separated|engaged|widowed)\b`)},
	{memory.FieldRelationship, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:just\s+)?got\s+(divorced|married|engaged)\b`)},
	{memory.FieldRelationship, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\bmy\s+(?:ex\s+)?(wife|husband|girlfriend|boyfriend)\s+(?:left|dumped)\b`)},
}

// Interest and platform rules collect every hit, not just the first.
var interestRules = []rule{
	{memory.FieldInterest, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bi\s+(?:love|really\s+like)\s+(?:to\s+)?([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldInterest, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+(?:big\s+)?into\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`)},
	{memory.FieldInterest, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\b(?:just\s+got\s+back\s+from|spent\s+all\s+day)\s+([a-zA-Z]+(?:ing)\b)`)},

	{memory.FieldPlatformPref, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\b(?:add|hit|text|message|dm)\s+me\s+on\s+(snap(?:chat)?|insta(?:gram)?|ig|telegram|whatsapp|signal|discord)\b`)},
	{memory.FieldPlatformPref, memory.ConfidenceExplicit, regexp.MustCompile(`(?i)\bmy\s+(snap(?:chat)?|insta(?:gram)?|ig|telegram|whatsapp|discord)\s+is\b`)},
	{memory.FieldPlatformPref, memory.ConfidenceInferred, regexp.MustCompile(`(?i)\b(?:i'?m|im)\s+(?:mostly|usually|always)\s+on\s+(snap(?:chat)?|insta(?:gram)?|ig|telegram|whatsapp|discord)\b`)},
}

// negationWindow is how many tokens before a match we scan for a
// negating word. "i don't live in austin anymore" must not set a
// location.
const negationWindow = 3

var negations = map[string]struct{}{
	"not": {}, "dont": {}, "don't": {}, "never": {}, "no": {},
	"aint": {}, "ain't": {}, "wasnt": {}, "wasn't": {}, "isnt": {},
	"isn't": {}, "wont": {}, "won't": {}, "used": {}, "wish": {},
	"hate": {},
}

var nameStopwords = map[string]struct{}{
	"just": {}, "good": {}, "fine": {}, "sorry": {}, "sure": {},
	"serious": {}, "down": {}, "here": {}, "bored": {}, "tired": {},
	"really": {}, "gonna": {}, "kinda": {},
}

// Trailing words a greedy two-word capture drags in that are never part
// of the value itself.
var trailingFiller = map[string]struct{}{
	"and": {}, "but": {}, "or": {}, "so": {}, "too": {}, "tho": {},
	"though": {}, "now": {}, "rn": {}, "lol": {}, "btw": {}, "haha": {},
	"they": {}, "tbh": {},
}

var valueStopwords = map[string]struct{}{
	"you": {}, "u": {}, "it": {}, "that": {}, "this": {}, "here": {},
	"there": {}, "her": {}, "him": {}, "them": {}, "the": {},
}

// Extract runs every rule over one fan message and returns merge
// candidates. The caller owns deciding what actually lands in the
// profile.
func Extract(message string) []memory.Candidate {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil
	}

	var out []memory.Candidate
	seen := map[string]bool{}
	for _, r := range fieldRules {
		if seen[r.field] {
			continue
		}
		m := r.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		if negatedBefore(text, m[0]) {
			continue
		}
		value := cleanValue(r.field, text[m[2]:m[3]])
		if value == "" {
			continue
		}
		seen[r.field] = true
		out = append(out, memory.Candidate{Field: r.field, Value: value, Confidence: r.confidence})
	}

	for _, r := range interestRules {
		for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
			if negatedBefore(text, m[0]) {
				continue
			}
			value := cleanValue(r.field, text[m[2]:m[3]])
			if value == "" {
				continue
			}
			out = append(out, memory.Candidate{Field: r.field, Value: value, Confidence: r.confidence})
		}
	}
	return out
}

func negatedBefore(text string, matchStart int) bool {
	tokens := strings.Fields(strings.ToLower(text[:matchStart]))
	if len(tokens) > negationWindow {
		tokens = tokens[len(tokens)-negationWindow:]
	}
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,!?")
		if _, ok := negations[tok]; ok {
			return true
		}
	}
	return false
}

func cleanValue(field, raw string) string {
	v := trimFiller(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}
	lower := strings.ToLower(v)
	if _, stop := valueStopwords[lower]; stop {
		return ""
	}
	switch field {
	case memory.FieldName:
		if _, stop := nameStopwords[lower]; stop {
			return ""
		}
		return strings.ToUpper(v[:1]) + strings.ToLower(v[1:])
	case memory.FieldLocation:
		return titleWords(lower)
	case memory.FieldAge:
		n, err := strconv.Atoi(v)
		if err != nil || n < 18 || n > 99 {
			return ""
		}
		return v
	case memory.FieldRelationship:
		// "my wife left" style captures a partner word, which means the
		// fan is on his own now
		switch lower {
		case "wife", "husband", "girlfriend", "boyfriend":
			return "single"
		}
		return lower
	case memory.FieldPlatformPref:
		return canonicalPlatform(lower)
	default:
		return lower
	}
}

func trimFiller(v string) string {
	words := strings.Fields(v)
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		if _, ok := trailingFiller[last]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func canonicalPlatform(p string) string {
	switch p {
	case "snap":
		return "snapchat"
	case "insta", "ig":
		return "instagram"
	}
	return p
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
