package phase

// Phase is the conversational objective governing what material may be
// surfaced next. Opening is the sole initial phase; Cold has no forward
// transition back into the funnel except a subscription signal or a
// configurable re-entry on a fresh session.
type Phase string

const (
	Opening    Phase = "opening"
	Location   Phase = "location"
	SmallTalk  Phase = "small_talk"
	Deflection Phase = "deflection"
	OFPitch    Phase = "of_pitch"
	PostPitch  Phase = "post_pitch"
	Cold       Phase = "cold"
)

func (p Phase) Valid() bool {
	switch p {
	case Opening, Location, SmallTalk, Deflection, OFPitch, PostPitch, Cold:
		return true
	}
	return false
}

// State is the phase-machine snapshot carried on every fan record.
type State struct {
	Phase             Phase `json:"phase"`
	OFMentioned       bool  `json:"of_mentioned"`
	OFSubscribed      bool  `json:"of_subscribed"`
	MeetupRequests    int   `json:"meetup_requests"`
	PicRequests       int   `json:"pic_requests"`
	OFMentionCount    int   `json:"of_mention_count"`
	PostPitchMessages int   `json:"post_pitch_messages"`
	RapportLevel      int   `json:"rapport_level"`
	ConversationCount int   `json:"conversation_count"`
	FanMessages       int   `json:"fan_messages"`
}

func NewState() *State {
	return &State{
		Phase:        Opening,
		RapportLevel: 1,
	}
}

// RequestTotal is the combined meetup and explicit-content request count.
func (s *State) RequestTotal() int {
	return s.MeetupRequests + s.PicRequests
}
