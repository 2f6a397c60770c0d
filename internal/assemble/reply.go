package assemble

import (
	"errors"
	"regexp"
	"strings"

	"github.com/YallaPapi/chatter/internal/memory"
)

// ErrEmptyReply means the raw generation parsed down to nothing
// sendable.
var ErrEmptyReply = errors.New("assemble: reply parsed to zero messages")

// ReplyMessage is one outgoing DM. Text may be empty when the message
// is just an image.
type ReplyMessage struct {
	Text     string
	ImageTag string
}

var imgMarker = regexp.MustCompile(`\[IMG:([a-zA-Z0-9_-]+)\]`)

// ParseReply splits a raw generation into sendable messages. Parts are
// separated by ||, blank parts are dropped, and at most one [IMG:tag]
// marker per part is extracted out of the text.
func ParseReply(raw string) ([]ReplyMessage, error) {
	var out []ReplyMessage
	for _, part := range strings.Split(raw, "||") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		msg := ReplyMessage{}
		if m := imgMarker.FindStringSubmatch(part); m != nil {
			msg.ImageTag = m[1]
			part = strings.TrimSpace(imgMarker.ReplaceAllString(part, ""))
		}
		msg.Text = part
		if msg.Text == "" && msg.ImageTag == "" {
			continue
		}
		out = append(out, msg)
	}
	if len(out) == 0 {
		return nil, ErrEmptyReply
	}
	return out, nil
}

// FindRepeat reports the first parsed message whose text was already
// sent to this fan, or -1 when the reply is fresh. The engine uses a
// hit to ask for one regeneration before giving up and sending anyway.
func FindRepeat(rec *memory.FanRecord, msgs []ReplyMessage) int {
	for i, m := range msgs {
		if m.Text == "" {
			continue
		}
		if rec.PhraseUsed(m.Text) {
			return i
		}
	}
	return -1
}
