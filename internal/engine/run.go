package engine

import (
	"context"
	"log"
	"sync"

	"github.com/YallaPapi/chatter/internal/bus"
	"github.com/YallaPapi/chatter/internal/memory"
)

// fanQueue holds one fan's pending messages. A single drain goroutine
// owns the queue while it is non-empty, so messages from the same fan
// are applied strictly in arrival order. Different fans drain in
// parallel.
type fanQueue struct {
	mu      sync.Mutex
	pending []bus.InboundMessage
	running bool
}

// Run consumes inbound messages until the context is cancelled,
// dispatching each fan's messages through that fan's ordered queue.
func (e *Engine) Run(ctx context.Context, b *bus.MessageBus) {
	log.Printf("[engine] processing loop started")
	var mu sync.Mutex
	queues := make(map[string]*fanQueue)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[engine] processing loop stopped: %v", ctx.Err())
			return
		case in := <-b.Inbound:
			key := memory.FanID(in.Channel, in.FanID)
			mu.Lock()
			q, ok := queues[key]
			if !ok {
				q = &fanQueue{}
				queues[key] = q
			}
			mu.Unlock()

			q.mu.Lock()
			q.pending = append(q.pending, in)
			if !q.running {
				q.running = true
				go e.drain(ctx, b, q)
			}
			q.mu.Unlock()
		}
	}
}

func (e *Engine) drain(ctx context.Context, b *bus.MessageBus, q *fanQueue) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		in := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		out, err := e.HandleInbound(ctx, in)
		if err != nil {
			log.Printf("[engine] handle %s/%s: %v", in.Channel, in.FanID, err)
			continue
		}
		for _, o := range out {
			select {
			case b.Outbound <- o:
			case <-ctx.Done():
				return
			}
		}
	}
}
