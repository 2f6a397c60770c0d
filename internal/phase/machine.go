package phase

// DefaultColdThreshold is the number of post-pitch fan messages without a
// subscription before a conversation is marked cold.
const DefaultColdThreshold = 4

// Result reports what a single Step did to the state.
type Result struct {
	From       Phase
	To         Phase
	Rule       string
	Transition bool
}

// Machine evaluates an ordered transition table over a fan's State. Rules
// are checked top to bottom and the first match wins, so earlier rules
// take precedence over later ones.
type Machine struct {
	// ColdThreshold overrides DefaultColdThreshold when > 0.
	ColdThreshold int
	// ColdReentry lets a cold conversation warm back up to small talk
	// when the fan opens a new session.
	ColdReentry bool
}

type rule struct {
	name  string
	when  func(m *Machine, s *State, ev Event) bool
	apply func(s *State) Phase
}

// Rules fire in this order. Counters (meetup_requests, pic_requests,
// post_pitch_messages) are already incremented by the time they run.
var rules = []rule{
	{
		name: "subscribed",
		when: func(m *Machine, s *State, ev Event) bool {
			return ev.Subscribed || ev.OptOut
		},
		apply: func(s *State) Phase { return PostPitch },
	},
	{
		name: "escalate_pitch",
		when: func(m *Machine, s *State, ev Event) bool {
			if !ev.MeetupRequest && !ev.PicRequest {
				return false
			}
			if s.Phase != SmallTalk && s.Phase != Deflection {
				return false
			}
			return s.RequestTotal() >= 2
		},
		apply: func(s *State) Phase {
			s.OFMentioned = true
			s.OFMentionCount++
			return OFPitch
		},
	},
	{
		name: "deflect_request",
		when: func(m *Machine, s *State, ev Event) bool {
			return ev.MeetupRequest || ev.PicRequest
		},
		apply: func(s *State) Phase { return Deflection },
	},
	{
		name: "location_opener",
		when: func(m *Machine, s *State, ev Event) bool {
			return ev.LocationMention && s.Phase == Opening
		},
		apply: func(s *State) Phase { return Location },
	},
	{
		name: "go_cold",
		when: func(m *Machine, s *State, ev Event) bool {
			return s.Phase == PostPitch && !s.OFSubscribed &&
				s.PostPitchMessages >= m.coldThreshold()
		},
		apply: func(s *State) Phase { return Cold },
	},
	{
		name: "cold_reentry",
		when: func(m *Machine, s *State, ev Event) bool {
			return s.Phase == Cold && ev.NewSession && m.ColdReentry
		},
		apply: func(s *State) Phase { return SmallTalk },
	},
	{
		name: "location_settle",
		when: func(m *Machine, s *State, ev Event) bool {
			return s.Phase == Location
		},
		apply: func(s *State) Phase { return SmallTalk },
	},
	{
		name: "deflection_settle",
		when: func(m *Machine, s *State, ev Event) bool {
			return s.Phase == Deflection
		},
		apply: func(s *State) Phase { return SmallTalk },
	},
}

func (m *Machine) coldThreshold() int {
	if m.ColdThreshold > 0 {
		return m.ColdThreshold
	}
	return DefaultColdThreshold
}

// Step folds one inbound fan message's detected Event into the state.
// Counters update unconditionally, then the first matching rule decides
// the phase. No match means the phase holds.
func (m *Machine) Step(s *State, ev Event) Result {
	if ev.MeetupRequest {
		s.MeetupRequests++
	}
	if ev.PicRequest {
		s.PicRequests++
	}
	if s.Phase == PostPitch && !s.OFSubscribed {
		s.PostPitchMessages++
	}
	if ev.Subscribed {
		s.OFSubscribed = true
	}
	if ev.OptOut {
		s.OFSubscribed = false
	}

	res := Result{From: s.Phase, To: s.Phase}
	for _, r := range rules {
		if r.when(m, s, ev) {
			res.Rule = r.name
			res.To = r.apply(s)
			break
		}
	}
	if res.To != res.From {
		s.Phase = res.To
		res.Transition = true
		if res.To == PostPitch {
			// Fresh pitch outcome, the cold clock restarts.
			s.PostPitchMessages = 0
		}
	}
	return res
}
