package phase

import (
	"regexp"
	"strings"
)

// Event is the set of triggers detected in one inbound message. The machine
// consumes an Event; it never looks at raw text itself.
type Event struct {
	Subscribed      bool
	OptOut          bool
	MeetupRequest   bool
	PicRequest      bool
	LocationMention bool
	Location        string // detected place name, title-cased, may be empty
	NewSession      bool   // inbound arrived after the inactivity gap
}

var meetupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:let'?s?|we\s+should|can\s+we|wanna)\s+(?:meet|hang|link|chill|grab)`),
	regexp.MustCompile(`(?i)(?:take|bring)\s+(?:you|u)\s+(?:out|to\s+dinner)`),
	regexp.MustCompile(`(?i)(?:get|grab)\s+(?:dinner|lunch|drinks?|coffee|food)`),
	regexp.MustCompile(`(?i)(?:show\s+(?:you|u)\s+around|hang\s*out|link\s*up)`),
	regexp.MustCompile(`(?i)when\s+(?:can|will)\s+(?:i|we)\s+(?:see|meet)\s+(?:you|u)`),
	regexp.MustCompile(`(?i)(?:pull\s+up|slide\s+through|come\s+(?:over|thru|through|by))`),
	regexp.MustCompile(`(?i)let\s+me\s+take\s+(?:you|u)\s+out`),
	regexp.MustCompile(`(?i)(?:free|available|down)\s+(?:tonight|later|this\s+weekend|to\s+hang)`),
	regexp.MustCompile(`(?i)(?:i\s+)?(?:wanna|want\s+to)\s+(?:see|meet)\s+(?:you|u)\b`),
	regexp.MustCompile(`(?i)(?:for\s+real\s*,?\s*)?(?:netflix|movie)\s+and\s+chill`),
}

var picRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)send\s+(?:me\s+)?(?:a\s+|some\s+)?(?:pic|photo|pics|nudes?|something\s+sexy|vid)`),
	regexp.MustCompile(`(?i)(?:got|have)\s+(?:any\s+)?(?:more\s+)?pics?`),
	regexp.MustCompile(`(?i)show\s+me\s+(?:something|more)`),
	regexp.MustCompile(`(?i)what\s+(?:are\s+)?(?:you|u|r\s+u)\s+wearing`),
	regexp.MustCompile(`(?i)(?:just|gimme)\s+(?:one|a)\s+(?:pic|nude)`),
}

var subscribedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:i\s+)?(?:just\s+)?(?:subbed|subscribed)\b`),
	regexp.MustCompile(`(?i)(?:i\s+)?signed\s+up`),
	regexp.MustCompile(`(?i)(?:bought|got|joined)\s+(?:it|your|ur|the)\s*(?:of|onlyfans|subscription)?`),
	regexp.MustCompile(`(?i)im\s+(?:on\s+)?(?:your|ur)\s+of\s+now`),
}

var optOutPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:not|never)\s+(?:gonna\s+|going\s+to\s+)?(?:pay(?:ing)?|sub(?:bing|scribing)?)`),
	regexp.MustCompile(`(?i)i\s+don'?t\s+pay\s+for`),
	regexp.MustCompile(`(?i)(?:unsub(?:bed|bing)?|cancell?ed)`),
	regexp.MustCompile(`(?i)(?:fuck|screw)\s+(?:this|that|off)`),
	regexp.MustCompile(`(?i)waste\s+of\s+time`),
	regexp.MustCompile(`(?i)bye\s+(?:bitch|fake)`),
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:i'?m\s+|im\s+)?(?:from|live\s+in|based\s+in)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`),
	regexp.MustCompile(`(?i)i\s+live\s+(?:in|near)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)?)`),
	regexp.MustCompile(`(?i)\bi'?m\s+(?:in|near|around)\s+(?:the\s+)?([a-zA-Z]+(?:\s+[a-zA-Z]+)?)\s+(?:area|city)\b`),
	regexp.MustCompile(`(?i)where\s+(?:are\s+)?(?:you|u)\s+(?:at|from|located)`),
}

// Words a location pattern may capture that are never places.
var locationStopwords = map[string]struct{}{
	"good": {}, "great": {}, "okay": {}, "fine": {}, "here": {},
	"there": {}, "home": {}, "work": {}, "bed": {}, "town": {},
	"you": {}, "u": {}, "me": {}, "it": {}, "that": {}, "this": {},
}

// DetectEvent scans one inbound message for every trigger the transition
// table consumes. Detection is purely lexical; negation handling for profile
// facts lives in the extractor, not here.
func DetectEvent(message string) Event {
	ev := Event{}
	text := strings.TrimSpace(message)
	if text == "" {
		return ev
	}

	for _, p := range subscribedPatterns {
		if p.MatchString(text) {
			ev.Subscribed = true
			break
		}
	}
	if !ev.Subscribed {
		for _, p := range optOutPatterns {
			if p.MatchString(text) {
				ev.OptOut = true
				break
			}
		}
	}
	for _, p := range meetupPatterns {
		if p.MatchString(text) {
			ev.MeetupRequest = true
			break
		}
	}
	if !ev.MeetupRequest {
		for _, p := range picRequestPatterns {
			if p.MatchString(text) {
				ev.PicRequest = true
				break
			}
		}
	}
	if loc, ok := detectLocation(text); ok {
		ev.LocationMention = true
		ev.Location = loc
	}
	return ev
}

func detectLocation(text string) (string, bool) {
	for _, p := range locationPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) < 2 {
			// question form ("where are you from") carries no place name
			return "", true
		}
		loc := strings.TrimSpace(m[1])
		if len(loc) <= 2 {
			continue
		}
		if _, stop := locationStopwords[strings.ToLower(loc)]; stop {
			continue
		}
		return titleCase(loc), true
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
