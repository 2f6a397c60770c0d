package bus

import "time"

// InboundMessage is one fan message delivered by a channel.
type InboundMessage struct {
	Channel   string
	FanID     string
	ChatID    string
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage is one reply message headed back to a channel. Ended is
// set when the conversation reached a terminal point, whether the fan
// subscribed, refused outright, or went cold, and the channel may stop
// expecting replies.
type OutboundMessage struct {
	Channel  string
	ChatID   string
	Content  string
	ImageTag string // trigger tag for image lookup, empty for text-only
	Ended    bool
	Metadata map[string]any
}
