package translate

import (
	"cmp"
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// implements Translator using Google Gemini
type GeminiTranslator struct {
	chatTranslator
	client *genai.Client
	model  string
}

func NewGeminiTranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	t := &GeminiTranslator{
		client: client,
		model:  cmp.Or(opts.Model, defaultGeminiModel),
	}
	t.chatTranslator = newChatTranslator(ProviderGemini, opts, t.complete)
	return t, nil
}

func (t *GeminiTranslator) complete(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}

	// first candidate with any text wins
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var text string
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
		if text != "" {
			return text, nil
		}
	}
	return "", errEmptyReply
}
