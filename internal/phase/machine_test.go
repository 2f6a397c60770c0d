package phase

import "testing"

func step(t *testing.T, m *Machine, s *State, msg string) Result {
	t.Helper()
	return m.Step(s, DetectEvent(msg))
}

func TestGreetingHoldsOpening(t *testing.T) {
	m := &Machine{}
	s := NewState()
	res := step(t, m, s, "hey")
	if res.Transition {
		t.Fatalf("expected no transition, got %s -> %s", res.From, res.To)
	}
	if s.Phase != Opening {
		t.Fatalf("phase = %s, want %s", s.Phase, Opening)
	}
}

func TestLocationMentionFromOpening(t *testing.T) {
	m := &Machine{}
	s := NewState()
	res := step(t, m, s, "I'm from Austin")
	if s.Phase != Location {
		t.Fatalf("phase = %s, want %s", s.Phase, Location)
	}
	if !res.Transition || res.Rule != "location_opener" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLocationSettlesToSmallTalk(t *testing.T) {
	m := &Machine{}
	s := NewState()
	step(t, m, s, "im from dallas")
	step(t, m, s, "yeah born and raised")
	if s.Phase != SmallTalk {
		t.Fatalf("phase = %s, want %s", s.Phase, SmallTalk)
	}
}

func TestFirstMeetupRequestDeflects(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = SmallTalk
	step(t, m, s, "we should grab drinks sometime")
	if s.Phase != Deflection {
		t.Fatalf("phase = %s, want %s", s.Phase, Deflection)
	}
	if s.MeetupRequests != 1 {
		t.Fatalf("meetup_requests = %d, want 1", s.MeetupRequests)
	}
}

func TestSecondRequestEscalatesToPitch(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = SmallTalk
	step(t, m, s, "wanna meet up?")
	if s.Phase != Deflection {
		t.Fatalf("after first request phase = %s, want %s", s.Phase, Deflection)
	}
	step(t, m, s, "come on let's meet, for real")
	if s.Phase != OFPitch {
		t.Fatalf("after second request phase = %s, want %s", s.Phase, OFPitch)
	}
	if !s.OFMentioned {
		t.Fatal("of_mentioned should be set after pitch")
	}
	if s.OFMentionCount != 1 {
		t.Fatalf("of_mention_count = %d, want 1", s.OFMentionCount)
	}
}

func TestMixedRequestsCountTogether(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = SmallTalk
	step(t, m, s, "send me a pic")
	step(t, m, s, "can we meet up this weekend")
	if s.Phase != OFPitch {
		t.Fatalf("phase = %s, want %s", s.Phase, OFPitch)
	}
	if got := s.RequestTotal(); got != 2 {
		t.Fatalf("request total = %d, want 2", got)
	}
}

func TestSubscribedWinsOverEverything(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = OFPitch
	step(t, m, s, "ok just subscribed! now send me a pic")
	if s.Phase != PostPitch {
		t.Fatalf("phase = %s, want %s", s.Phase, PostPitch)
	}
	if !s.OFSubscribed {
		t.Fatal("of_subscribed should be set")
	}
}

func TestDeflectionSettlesWithoutRequest(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = Deflection
	step(t, m, s, "haha fair enough")
	if s.Phase != SmallTalk {
		t.Fatalf("phase = %s, want %s", s.Phase, SmallTalk)
	}
}

func TestPostPitchGoesCold(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = PostPitch
	for i := 0; i < DefaultColdThreshold-1; i++ {
		step(t, m, s, "lol")
		if s.Phase != PostPitch {
			t.Fatalf("message %d: phase = %s, want %s", i+1, s.Phase, PostPitch)
		}
	}
	res := step(t, m, s, "nah too expensive lol")
	if s.Phase != Cold {
		t.Fatalf("phase = %s, want %s", s.Phase, Cold)
	}
	if res.Rule != "go_cold" {
		t.Fatalf("rule = %q, want go_cold", res.Rule)
	}
}

func TestSubscribedNeverGoesCold(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = PostPitch
	s.OFSubscribed = true
	for i := 0; i < DefaultColdThreshold*2; i++ {
		step(t, m, s, "hey")
	}
	if s.Phase != PostPitch {
		t.Fatalf("phase = %s, want %s", s.Phase, PostPitch)
	}
}

func TestColdSubscriptionRevives(t *testing.T) {
	m := &Machine{}
	s := NewState()
	s.Phase = Cold
	step(t, m, s, "fine, i subscribed")
	if s.Phase != PostPitch {
		t.Fatalf("phase = %s, want %s", s.Phase, PostPitch)
	}
	if !s.OFSubscribed {
		t.Fatal("of_subscribed should be set")
	}
	if s.PostPitchMessages != 0 {
		t.Fatalf("post_pitch_messages = %d, want 0 after revival", s.PostPitchMessages)
	}
}

func TestColdReentryOnNewSession(t *testing.T) {
	m := &Machine{ColdReentry: true}
	s := NewState()
	s.Phase = Cold
	res := m.Step(s, Event{NewSession: true})
	if s.Phase != SmallTalk {
		t.Fatalf("phase = %s, want %s", s.Phase, SmallTalk)
	}
	if res.Rule != "cold_reentry" {
		t.Fatalf("rule = %q, want cold_reentry", res.Rule)
	}

	off := &Machine{}
	s2 := NewState()
	s2.Phase = Cold
	off.Step(s2, Event{NewSession: true})
	if s2.Phase != Cold {
		t.Fatalf("with reentry disabled phase = %s, want %s", s2.Phase, Cold)
	}
}

func TestCustomColdThreshold(t *testing.T) {
	m := &Machine{ColdThreshold: 2}
	s := NewState()
	s.Phase = PostPitch
	step(t, m, s, "hm")
	step(t, m, s, "maybe later")
	if s.Phase != Cold {
		t.Fatalf("phase = %s, want %s", s.Phase, Cold)
	}
}
