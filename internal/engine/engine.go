// Package engine runs the per-message conversation cycle: load the
// fan's memory, read the message, advance the funnel, generate a reply,
// and persist everything before the reply leaves the process.
package engine

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YallaPapi/chatter/internal/analytics"
	"github.com/YallaPapi/chatter/internal/assemble"
	"github.com/YallaPapi/chatter/internal/bus"
	"github.com/YallaPapi/chatter/internal/generate"
	"github.com/YallaPapi/chatter/internal/intent"
	"github.com/YallaPapi/chatter/internal/memory"
	"github.com/YallaPapi/chatter/internal/phase"
	"github.com/YallaPapi/chatter/internal/profile"
	"github.com/YallaPapi/chatter/internal/scenario"
)

// EventLogger receives one analytics event per handled message. A nil
// logger disables analytics.
type EventLogger interface {
	LogEvent(ctx context.Context, ev analytics.Event) error
}

type Options struct {
	Store     *memory.Store
	Machine   *phase.Machine
	Generator generate.Generator
	Scenario  *scenario.Scenario
	Analytics EventLogger

	SessionGap      time.Duration
	SobProbability  float64
	GenerateTimeout time.Duration

	// Now and Rand are injectable for tests.
	Now  func() time.Time
	Rand *rand.Rand
}

type Engine struct {
	store     *memory.Store
	machine   *phase.Machine
	gen       generate.Generator
	scenario  *scenario.Scenario
	builder   *assemble.Builder
	analytics EventLogger

	sessionGap time.Duration
	sobProb    float64
	genTimeout time.Duration

	now func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(opts Options) *Engine {
	e := &Engine{
		store:      opts.Store,
		machine:    opts.Machine,
		gen:        opts.Generator,
		scenario:   opts.Scenario,
		builder:    &assemble.Builder{Scenario: opts.Scenario},
		analytics:  opts.Analytics,
		sessionGap: opts.SessionGap,
		sobProb:    opts.SobProbability,
		genTimeout: opts.GenerateTimeout,
		now:        opts.Now,
		rng:        opts.Rand,
	}
	if e.machine == nil {
		e.machine = &phase.Machine{}
	}
	if e.sessionGap <= 0 {
		e.sessionGap = 6 * time.Hour
	}
	if e.genTimeout <= 0 {
		e.genTimeout = 30 * time.Second
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// HandleInbound runs one full cycle for one fan message and returns the
// messages to send back. Memory is always committed, even when
// generation fails and a canned fallback goes out instead.
func (e *Engine) HandleInbound(ctx context.Context, in bus.InboundMessage) ([]bus.OutboundMessage, error) {
	cycleID := uuid.NewString()
	started := e.now()

	fanID := memory.FanID(in.Channel, in.FanID)
	lock := e.store.Lock(fanID)
	lock.Lock()
	defer lock.Unlock()

	now := in.Timestamp
	if now.IsZero() {
		now = e.now()
	}

	rec, err := e.store.LoadOrCreate(in.Channel, in.FanID, now)
	if err != nil {
		return nil, err
	}
	if len(rec.Messages) == 0 {
		e.assignSobStory(rec)
	}

	newSession := rec.RecordInbound(in.Content, now, e.sessionGap)

	msgIntent, _ := intent.Detect(in.Content)
	rec.Mood.Update(msgIntent, len(in.Content))

	merged := rec.MergeProfile(profile.Extract(in.Content), now)
	if merged > 0 {
		log.Printf("[engine] fan %s: merged %d profile candidates", fanID, merged)
	}
	e.markTopics(rec, msgIntent)

	ev := phase.DetectEvent(in.Content)
	ev.NewSession = newSession
	res := e.machine.Step(rec.State, ev)
	if res.Transition {
		log.Printf("[engine] fan %s: %s -> %s (%s)", fanID, res.From, res.To, res.Rule)
	}
	if ev.LocationMention && ev.Location != "" {
		rec.MarkTopic("location")
	}

	msgs, usedFallback := e.reply(ctx, rec)

	// terminal either way: the fan converted, refused outright, or went cold
	ended := rec.State.OFSubscribed || ev.OptOut || rec.State.Phase == phase.Cold

	out := make([]bus.OutboundMessage, 0, len(msgs))
	for _, m := range msgs {
		rec.RecordOutbound(m.Text, e.now())
		out = append(out, bus.OutboundMessage{
			Channel:  in.Channel,
			ChatID:   in.ChatID,
			Content:  m.Text,
			ImageTag: m.ImageTag,
			Ended:    ended,
		})
	}

	if err := e.store.Save(rec); err != nil {
		// the reply is already composed; losing memory is worse than a
		// delayed send, so surface the error instead of sending
		return nil, err
	}

	if e.analytics != nil {
		logErr := e.analytics.LogEvent(ctx, analytics.Event{
			CycleID:     cycleID,
			Timestamp:   now,
			FanID:       fanID,
			Channel:     in.Channel,
			Intent:      string(msgIntent),
			PhaseFrom:   string(res.From),
			PhaseTo:     string(res.To),
			Rule:        res.Rule,
			MessagesOut: len(out),
			Fallback:    usedFallback,
			LatencyMs:   e.now().Sub(started).Milliseconds(),
		})
		if logErr != nil {
			log.Printf("[engine] analytics log failed: %v", logErr)
		}
	}

	return out, nil
}

// reply generates and parses the outgoing messages, retrying once when
// the model repeats itself, and falling back to canned lines when
// generation is unavailable.
func (e *Engine) reply(ctx context.Context, rec *memory.FanRecord) ([]assemble.ReplyMessage, bool) {
	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	asm := e.builder.Build(rec)
	msgs, err := e.generateOnce(genCtx, asm)
	if err != nil {
		log.Printf("[engine] fan %s: generation failed, using fallback: %v", rec.FanID, err)
		return e.fallback(rec), true
	}

	if i := assemble.FindRepeat(rec, msgs); i >= 0 {
		log.Printf("[engine] fan %s: reply repeats %q, regenerating", rec.FanID, msgs[i].Text)
		retry, retryErr := e.generateOnce(genCtx, asm)
		if retryErr == nil && assemble.FindRepeat(rec, retry) < 0 {
			return retry, false
		}
		// send the original rather than go silent
	}
	return msgs, false
}

func (e *Engine) generateOnce(ctx context.Context, asm assemble.Assembly) ([]assemble.ReplyMessage, error) {
	raw, err := e.gen.Generate(ctx, asm)
	if err != nil {
		return nil, err
	}
	return assemble.ParseReply(raw)
}

func (e *Engine) fallback(rec *memory.FanRecord) []assemble.ReplyMessage {
	e.rngMu.Lock()
	line := e.scenario.Fallback(string(rec.State.Phase), e.rng)
	e.rngMu.Unlock()
	if line == "" {
		line = "lol one sec"
	}
	return []assemble.ReplyMessage{{Text: line}}
}

func (e *Engine) assignSobStory(rec *memory.FanRecord) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	if e.rng.Float64() >= e.sobProb {
		return
	}
	rec.SobStory = e.scenario.PickSobStory(e.rng).ID
}

func (e *Engine) markTopics(rec *memory.FanRecord, in intent.Intent) {
	switch in {
	case intent.Meetup:
		rec.MarkTopic("meeting up")
	case intent.PicRequest:
		rec.MarkTopic("pictures")
	case intent.Purchase:
		rec.MarkTopic("onlyfans")
	}
	if rec.Profile.Job.Value != "" {
		rec.MarkTopic("work")
	}
	if len(rec.Profile.Interests) > 0 {
		rec.MarkTopic("hobbies")
	}
}
