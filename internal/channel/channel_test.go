package channel

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/YallaPapi/chatter/internal/bus"
	"github.com/YallaPapi/chatter/internal/config"
)

func TestBaseChannel_Name(t *testing.T) {
	b := bus.NewMessageBus(10)
	ch := NewBaseChannel("test", b, nil)
	if ch.Name() != "test" {
		t.Errorf("Name = %q, want test", ch.Name())
	}
}

func TestBaseChannel_IsAllowed_NoFilter(t *testing.T) {
	b := bus.NewMessageBus(10)
	ch := NewBaseChannel("test", b, nil)
	if !ch.IsAllowed("anyone") {
		t.Error("should allow anyone when allowFrom is empty")
	}
}

func TestBaseChannel_IsAllowed_WithFilter(t *testing.T) {
	b := bus.NewMessageBus(10)
	ch := NewBaseChannel("test", b, []string{"user1", "user2"})

	if !ch.IsAllowed("user1") {
		t.Error("should allow user1")
	}
	if ch.IsAllowed("user3") {
		t.Error("should reject user3")
	}
}

func TestNewTelegramChannel_NoToken(t *testing.T) {
	b := bus.NewMessageBus(10)
	if _, err := NewTelegramChannel(config.TelegramConfig{}, b); err == nil {
		t.Error("expected error for empty token")
	}
}

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}
func (f *fakeBot) StopReceivingUpdates() {}
func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}
func (f *fakeBot) GetSelf() tgbotapi.User { return tgbotapi.User{UserName: "testbot"} }

func TestTelegramSend(t *testing.T) {
	b := bus.NewMessageBus(10)
	ch, err := NewTelegramChannel(config.TelegramConfig{Token: "fake-token"}, b)
	if err != nil {
		t.Fatalf("NewTelegramChannel: %v", err)
	}
	bot := &fakeBot{}
	ch.SetBot(bot)

	err = ch.Send(bus.OutboundMessage{ChatID: "12345", Content: "heyy", ImageTag: "beach"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("sent %d messages, want 2 (text + image placeholder)", len(bot.sent))
	}

	if err := ch.Send(bus.OutboundMessage{ChatID: "not-a-number", Content: "x"}); err == nil {
		t.Error("expected error for bad chat id")
	}
}

func TestTelegramHandleMessage(t *testing.T) {
	b := bus.NewMessageBus(10)
	ch, err := NewTelegramChannel(config.TelegramConfig{Token: "fake-token"}, b)
	if err != nil {
		t.Fatalf("NewTelegramChannel: %v", err)
	}

	ch.handleMessage(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, UserName: "jake99"},
		Chat: &tgbotapi.Chat{ID: 42},
		Text: "hey there",
		Date: 1767225600,
	})

	select {
	case in := <-b.Inbound:
		if in.Channel != "telegram" || in.FanID != "jake99" || in.ChatID != "42" {
			t.Fatalf("inbound = %+v", in)
		}
		if in.Content != "hey there" {
			t.Fatalf("content = %q", in.Content)
		}
	default:
		t.Fatal("no inbound message published")
	}
}

func TestTelegramAllowlist(t *testing.T) {
	b := bus.NewMessageBus(10)
	ch, err := NewTelegramChannel(config.TelegramConfig{Token: "fake-token", AllowFrom: []string{"99"}}, b)
	if err != nil {
		t.Fatalf("NewTelegramChannel: %v", err)
	}

	ch.handleMessage(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, UserName: "stranger"},
		Chat: &tgbotapi.Chat{ID: 42},
		Text: "hi",
	})

	select {
	case in := <-b.Inbound:
		t.Fatalf("blocked sender got through: %+v", in)
	default:
	}
}

func TestManagerRegistersEnabled(t *testing.T) {
	b := bus.NewMessageBus(10)
	m, err := NewManager(config.ChannelsConfig{
		Telegram: config.TelegramConfig{Enabled: true, Token: "fake"},
		Console:  config.ConsoleConfig{Enabled: true},
	}, config.GatewayConfig{Port: 0}, b)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	names := m.EnabledChannels()
	if len(names) != 2 {
		t.Fatalf("enabled = %v, want telegram and console", names)
	}
}
