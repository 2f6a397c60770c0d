package phase

import "testing"

func TestDetectEventTriggers(t *testing.T) {
	cases := []struct {
		msg  string
		want Event
	}{
		{"hey", Event{}},
		{"wanna meet up sometime?", Event{MeetupRequest: true}},
		{"let me take you out", Event{MeetupRequest: true}},
		{"you should pull up", Event{MeetupRequest: true}},
		{"send me a pic", Event{PicRequest: true}},
		{"got any more pics?", Event{PicRequest: true}},
		{"what are you wearing rn", Event{PicRequest: true}},
		{"just subscribed!", Event{Subscribed: true}},
		{"ok i signed up", Event{Subscribed: true}},
		{"im never paying for that", Event{OptOut: true}},
		{"unsubbed, waste of time", Event{OptOut: true}},
		{"i unsubscribed already", Event{OptOut: true}},
		{"just subbed 🔥", Event{Subscribed: true}},
		{"", Event{}},
		{"   ", Event{}},
	}
	for _, tc := range cases {
		got := DetectEvent(tc.msg)
		if got != tc.want {
			t.Errorf("DetectEvent(%q) = %+v, want %+v", tc.msg, got, tc.want)
		}
	}
}

func TestDetectEventLocation(t *testing.T) {
	cases := []struct {
		msg      string
		mention  bool
		location string
	}{
		{"I'm from Austin", true, "Austin"},
		{"im from new york", true, "New York"},
		{"i live in chicago", true, "Chicago"},
		{"based in the bay area", true, "The Bay"},
		{"where are you from?", true, ""},
		{"im in the denver area", true, "Denver"},
		{"bay area vibes all day", false, ""},
		{"im from here", false, ""},
		{"nothing about places", false, ""},
	}
	for _, tc := range cases {
		got := DetectEvent(tc.msg)
		if got.LocationMention != tc.mention {
			t.Errorf("DetectEvent(%q).LocationMention = %v, want %v", tc.msg, got.LocationMention, tc.mention)
			continue
		}
		if got.Location != tc.location {
			t.Errorf("DetectEvent(%q).Location = %q, want %q", tc.msg, got.Location, tc.location)
		}
	}
}

func TestMeetupDoesNotDoubleAsPic(t *testing.T) {
	ev := DetectEvent("wanna meet and you can show me more")
	if !ev.MeetupRequest {
		t.Fatal("expected meetup request")
	}
	if ev.PicRequest {
		t.Fatal("pic request should not be set when meetup already matched")
	}
}

func TestSubscribedSuppressesOptOut(t *testing.T) {
	ev := DetectEvent("i subscribed but might cancel")
	if !ev.Subscribed {
		t.Fatal("expected subscribed")
	}
	if ev.OptOut {
		t.Fatal("opt-out should not be set when subscribed matched")
	}
}
