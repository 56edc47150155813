package translate

import (
	"cmp"
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-5-mini"

// implements Translator using OpenAI Chat Completions
type OpenAITranslator struct {
	chatTranslator
	client openai.Client
	model  string
}

func NewOpenAITranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	t := &OpenAITranslator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cmp.Or(opts.Model, defaultOpenAIModel),
	}
	t.chatTranslator = newChatTranslator(ProviderOpenAI, opts, t.complete)
	return t, nil
}

func (t *OpenAITranslator) complete(ctx context.Context, system, prompt string) (string, error) {
	completion, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: t.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errEmptyReply
	}
	return completion.Choices[0].Message.Content, nil
}
