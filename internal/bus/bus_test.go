package bus

import (
	"context"
	"testing"
	"time"
)

func TestNewMessageBus_Buffered(t *testing.T) {
	b := NewMessageBus(10)
	if cap(b.Inbound) != 10 {
		t.Errorf("Inbound cap = %d, want 10", cap(b.Inbound))
	}
	if cap(b.Outbound) != 10 {
		t.Errorf("Outbound cap = %d, want 10", cap(b.Outbound))
	}
}

func TestNewMessageBus_ZeroBuf(t *testing.T) {
	b := NewMessageBus(0)
	if cap(b.Inbound) != 1 {
		t.Errorf("Inbound cap = %d, want 1", cap(b.Inbound))
	}
}

func TestDispatchOutbound_RoutesToSubscriber(t *testing.T) {
	b := NewMessageBus(5)

	got := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("telegram", func(msg OutboundMessage) {
		got <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{Channel: "telegram", ChatID: "42", Content: "hey you"}

	select {
	case msg := <-got:
		if msg.ChatID != "42" || msg.Content != "hey you" {
			t.Errorf("unexpected message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received message")
	}
}

func TestDispatchOutbound_DropsUnknownChannel(t *testing.T) {
	b := NewMessageBus(5)

	got := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("console", func(msg OutboundMessage) {
		got <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	// no subscriber for this one, must not panic or block
	b.Outbound <- OutboundMessage{Channel: "telegram", Content: "dropped"}
	b.Outbound <- OutboundMessage{Channel: "console", Content: "kept"}

	select {
	case msg := <-got:
		if msg.Content != "kept" {
			t.Errorf("Content = %q, want 'kept'", msg.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("console subscriber never received message")
	}
}

func TestDispatchOutbound_StopsOnCancel(t *testing.T) {
	b := NewMessageBus(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.DispatchOutbound(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("DispatchOutbound did not return after cancel")
	}
}

func TestInboundSessionKey(t *testing.T) {
	in := InboundMessage{Channel: "telegram", ChatID: "99817"}
	if key := in.SessionKey(); key != "telegram:99817" {
		t.Errorf("SessionKey = %q, want telegram:99817", key)
	}
}
