// Package generate wraps the LLM behind a small interface so the engine
// never touches provider SDKs directly.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cexll/agentsdk-go/pkg/model"

	"github.com/YallaPapi/chatter/internal/assemble"
	"github.com/YallaPapi/chatter/internal/config"
	"github.com/YallaPapi/chatter/internal/memory"
)

// Generator produces one raw reply for an assembled prompt. The raw
// string still contains || separators and [IMG:] markers.
type Generator interface {
	Generate(ctx context.Context, asm assemble.Assembly) (string, error)
}

// Client drives a provider-backed model.
type Client struct {
	model       model.Model
	modelName   string
	maxTokens   int
	temperature float64
}

// NewClient builds the model from config. Provider type selects the
// SDK backend; anthropic is the default.
func NewClient(ctx context.Context, provider config.ProviderConfig, gen config.GenerationConfig) (*Client, error) {
	if provider.APIKey == "" {
		return nil, fmt.Errorf("generate: no API key configured")
	}

	var (
		m   model.Model
		err error
	)
	switch provider.Type {
	case "", "anthropic":
		p := &model.AnthropicProvider{
			APIKey:    provider.APIKey,
			BaseURL:   provider.BaseURL,
			ModelName: gen.Model,
			MaxTokens: gen.MaxTokens,
		}
		m, err = p.Model(ctx)
	case "openai":
		p := &model.OpenAIProvider{
			APIKey:    provider.APIKey,
			BaseURL:   provider.BaseURL,
			ModelName: gen.Model,
			MaxTokens: gen.MaxTokens,
		}
		m, err = p.Model(ctx)
	default:
		return nil, fmt.Errorf("generate: unknown provider type %q", provider.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("generate: init provider: %w", err)
	}

	return &Client{
		model:       m,
		modelName:   gen.Model,
		maxTokens:   gen.MaxTokens,
		temperature: gen.Temperature,
	}, nil
}

// Generate runs one completion over the assembly.
func (c *Client) Generate(ctx context.Context, asm assemble.Assembly) (string, error) {
	msgs := make([]model.Message, 0, len(asm.History))
	for _, m := range asm.History {
		role := "user"
		if m.Role == memory.RoleCreator {
			role = "assistant"
		}
		msgs = append(msgs, model.Message{Role: role, Content: m.Content})
	}

	temp := c.temperature
	resp, err := c.model.Complete(ctx, model.Request{
		Messages:    msgs,
		System:      asm.System,
		Model:       c.modelName,
		MaxTokens:   c.maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	out := strings.TrimSpace(resp.Message.Content)
	if out == "" {
		return "", fmt.Errorf("generate: model returned empty completion")
	}
	return out, nil
}
