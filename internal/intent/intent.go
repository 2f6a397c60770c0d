// Package intent classifies one inbound fan message into a coarse
// intent. Classification is lexical and priority ordered: when a message
// matches several intents the highest-priority one wins.
package intent

import "regexp"

type Intent string

const (
	Sexual     Intent = "sexual"
	Meetup     Intent = "meetup"
	PicRequest Intent = "pic_request"
	Complaint  Intent = "complaint"
	Purchase   Intent = "purchase"
	Compliment Intent = "compliment"
	Question   Intent = "question"
	Greeting   Intent = "greeting"
	Farewell   Intent = "farewell"
	Chitchat   Intent = "chitchat"
)

type classifier struct {
	intent     Intent
	confidence float64
	patterns   []*regexp.Regexp
}

// Ordered by priority. A sexual message that is also a question reads as
// sexual, a complaint that says hi reads as a complaint.
var classifiers = []classifier{
	{Sexual, 0.9, compile(
		`(?i)\b(?:horny|naked|nudes?|sext|dirty|freaky|dtf)\b`,
		`(?i)what\s+(?:are\s+)?(?:you|u)\s+wearing`,
		`(?i)\bturn(?:s|ed)?\s+me\s+on\b`,
	)},
	{Meetup, 0.85, compile(
		`(?i)(?:let'?s?|we\s+should|can\s+we|wanna)\s+(?:meet|hang|link|chill|grab)`,
		`(?i)(?:take|bring)\s+(?:you|u)\s+out`,
		`(?i)(?:pull\s+up|slide\s+through|come\s+(?:over|thru|through|by))`,
	)},
	{PicRequest, 0.85, compile(
		`(?i)send\s+(?:me\s+)?(?:a\s+|some\s+)?(?:pic|photo|pics|vid)`,
		`(?i)(?:got|have)\s+(?:any\s+)?(?:more\s+)?pics?`,
		`(?i)show\s+me\s+(?:something|more)`,
	)},
	{Complaint, 0.8, compile(
		`(?i)\b(?:scam|fake|bot|catfish)\b`,
		`(?i)waste\s+of\s+(?:time|money)`,
		`(?i)(?:you|u)\s+(?:never|don'?t)\s+(?:answer|reply|respond)`,
	)},
	{Purchase, 0.8, compile(
		`(?i)(?:subbed|subscribed|signed\s+up)`,
		`(?i)how\s+much\s+(?:is|for)`,
		`(?i)\b(?:onlyfans|of\s+link)\b`,
	)},
	{Compliment, 0.7, compile(
		`(?i)(?:you'?re?|ur|u\s+r)\s+(?:so\s+)?(?:beautiful|gorgeous|hot|cute|stunning|perfect|amazing)`,
		`(?i)\b(?:beautiful|gorgeous|stunning)\b`,
	)},
	{Question, 0.6, compile(
		`\?\s*$`,
		`(?i)^(?:who|what|when|where|why|how|do|does|did|are|is|can|could|would)\b`,
	)},
	{Greeting, 0.6, compile(
		`(?i)^(?:hey+|hi+|hello|yo|sup|wass?up|good\s+(?:morning|evening))\b`,
	)},
	{Farewell, 0.6, compile(
		`(?i)\b(?:gtg|gotta\s+go|good\s*night|talk\s+later|ttyl|bye+)\b`,
	)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Detect returns the message's intent and a confidence score. Messages
// matching nothing fall through to Chitchat with low confidence.
func Detect(message string) (Intent, float64) {
	for _, c := range classifiers {
		for _, p := range c.patterns {
			if p.MatchString(message) {
				return c.intent, c.confidence
			}
		}
	}
	return Chitchat, 0.3
}
