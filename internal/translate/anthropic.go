package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// a full batch of 50 Chinese lines stays well under this
const anthropicMaxTokens = 8192

// implements Translator using Anthropic Claude
type AnthropicTranslator struct {
	chatTranslator
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicTranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := anthropic.ModelClaudeHaiku4_5
	if opts.Model != "" {
		model = anthropic.Model(opts.Model)
	}

	t := &AnthropicTranslator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
	t.chatTranslator = newChatTranslator(ProviderAnthropic, opts, t.complete)
	return t, nil
}

func (t *AnthropicTranslator) complete(ctx context.Context, system, prompt string) (string, error) {
	message, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	if reply.Len() == 0 {
		return "", errEmptyReply
	}
	return reply.String(), nil
}
