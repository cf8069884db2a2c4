// Package assistant answers farm-operations questions with an LLM that can
// call back into the inventory and task services.
package assistant

import (
	"context"

	"github.com/liushuangls/go-anthropic/v2"
)

// Chatter abstracts the Anthropic Messages API so tests can script model
// turns without network access.
type Chatter interface {
	Chat(ctx context.Context, req anthropic.MessagesRequest) (anthropic.MessagesResponse, error)
}

type anthropicChatter struct {
	client *anthropic.Client
}

// NewAnthropicChatter returns a Chatter backed by the Anthropic API.
func NewAnthropicChatter(apiKey string) Chatter {
	return &anthropicChatter{client: anthropic.NewClient(apiKey)}
}

func (c *anthropicChatter) Chat(ctx context.Context, req anthropic.MessagesRequest) (anthropic.MessagesResponse, error) {
	return c.client.CreateMessages(ctx, req)
}
