package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

// single text item to translate. Start and End carry the cue timing for
// translators that work on whole subtitle files; they never reach an LLM.
type TranslationItem struct {
	Index int           `json:"index"`
	Text  string        `json:"text"`
	Start time.Duration `json:"-"`
	End   time.Duration `json:"-"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// optional interface for translators that support concurrent batch processing
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(
		ctx context.Context,
		items []TranslationItem,
		concurrency int,
	) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderManual    Provider = "manual"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ErrTimeout is returned when a manual translation never shows up.
var ErrTimeout = errors.New("timed out waiting for translation")

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
	// Glossary maps source terms to the rendering the output must use.
	Glossary map[string]string

	// manual provider only
	WorkDir      string
	Timeout      time.Duration
	PollInterval time.Duration

	Logger *logging.Logger
}

// APIKeyEnv names the environment variable holding a provider's key.
func APIKeyEnv(provider Provider) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderManual:
		return NewManualTranslator(opts)
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		fmt.Fprintf(&sb,
			"Translate the following %s subtitle texts to %s.\n\n",
			opts.InputLanguage,
			opts.TargetLanguage,
		)
	} else {
		fmt.Fprintf(&sb,
			"Translate the following subtitle texts to %s.\n\n",
			opts.TargetLanguage,
		)
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Keep any formatting tags (like {\\pos}, {\\an}, etc.) unchanged.\n")
	sb.WriteString("3. Preserve line breaks (\\N) in the same positions.\n")
	sb.WriteString("4. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("5. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("6. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	writeGlossary(&sb, opts.Glossary)

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

func writeGlossary(sb *strings.Builder, glossary map[string]string) {
	if len(glossary) == 0 {
		return
	}
	terms := make([]string, 0, len(glossary))
	for term := range glossary {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	sb.WriteString("Always translate these terms exactly as shown:\n")
	for _, term := range terms {
		fmt.Fprintf(sb, "- %s => %s\n", term, glossary[term])
	}
	sb.WriteString("\n")
}

// ItemsFromSubtitle numbers the entries of sub from zero.
func ItemsFromSubtitle(sub *subtitle.Subtitle) []TranslationItem {
	items := make([]TranslationItem, len(sub.Entries))
	for i, entry := range sub.Entries {
		items[i] = TranslationItem{
			Index: i,
			Text:  entry.Text,
			Start: entry.StartTime,
			End:   entry.EndTime,
		}
	}
	return items
}

// Apply copies sub with each entry's text replaced by its result. Every
// entry must have a result.
func Apply(
	sub *subtitle.Subtitle,
	results []TranslationResult,
	language string,
) (*subtitle.Subtitle, error) {
	texts := make([]string, len(sub.Entries))
	seen := make([]bool, len(sub.Entries))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(sub.Entries) {
			return nil, fmt.Errorf("result index %d out of range (0-%d)", r.Index, len(sub.Entries)-1)
		}
		texts[r.Index] = r.Text
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing translation for entry %d", i+1)
		}
	}

	out := &subtitle.Subtitle{
		Entries:  make([]subtitle.Entry, len(sub.Entries)),
		Language: language,
		Format:   sub.Format,
	}
	for i, entry := range sub.Entries {
		entry.Text = texts[i]
		out.Entries[i] = entry
	}
	return out, nil
}

// Run translates items, using the concurrent path when the translator has one.
func Run(
	ctx context.Context,
	translator Translator,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if ct, ok := translator.(ConcurrentTranslator); ok {
		return ct.TranslateWithConcurrency(ctx, items, concurrency)
	}
	return translator.Translate(ctx, items)
}
