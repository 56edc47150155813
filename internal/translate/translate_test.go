package translate

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/bilisub/internal/subtitle"
)

func TestFactoryReturnsProviderTranslators(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		provider Provider
		check    func(Translator) bool
	}{
		{ProviderGemini, func(tr Translator) bool { _, ok := tr.(*GeminiTranslator); return ok }},
		{ProviderOpenAI, func(tr Translator) bool { _, ok := tr.(*OpenAITranslator); return ok }},
		{ProviderAnthropic, func(tr Translator) bool { _, ok := tr.(*AnthropicTranslator); return ok }},
		{ProviderManual, func(tr Translator) bool { _, ok := tr.(*ManualTranslator); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			opts := Options{TargetLanguage: "Chinese", WorkDir: t.TempDir()}
			translator, err := Factory(ctx, tt.provider, "fake-key", opts)
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", tt.provider, err)
			}
			if !tt.check(translator) {
				t.Errorf("unexpected translator type %T", translator)
			}
		})
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	_, err := Factory(context.Background(), ProviderGemini, "fake-key", Options{})
	if err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	opts := Options{TargetLanguage: "French"}
	_, err := Factory(context.Background(), Provider("unknown"), "fake-key", opts)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	opts := Options{TargetLanguage: "Chinese"}
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		if _, err := Factory(context.Background(), p, "", opts); err == nil {
			t.Errorf("%s: expected error for missing API key", p)
		}
	}
}

func TestLLMTranslatorsImplementConcurrentTranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "Chinese"}
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		translator, err := Factory(ctx, p, "fake-key", opts)
		if err != nil {
			t.Fatalf("Factory error: %v", err)
		}
		if _, ok := translator.(ConcurrentTranslator); !ok {
			t.Errorf("%T should implement ConcurrentTranslator", translator)
		}
	}
}

func TestAPIKeyEnv(t *testing.T) {
	tests := map[Provider]string{
		ProviderGemini:    "GEMINI_API_KEY",
		ProviderOpenAI:    "OPENAI_API_KEY",
		ProviderAnthropic: "ANTHROPIC_API_KEY",
		ProviderManual:    "",
	}
	for p, want := range tests {
		if got := APIKeyEnv(p); got != want {
			t.Errorf("APIKeyEnv(%s) = %q, want %q", p, got, want)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	opts := Options{
		InputLanguage:  "English",
		TargetLanguage: "Chinese",
		Glossary:       map[string]string{"Trump": "特朗普", "Daily Show": "每日秀"},
		Prompt:         "Keep it casual.",
	}
	items := []TranslationItem{
		{Index: 0, Text: "Hello world", Start: time.Second},
		{Index: 1, Text: "Goodbye"},
	}

	prompt := BuildPrompt(opts, items)

	for _, want := range []string{
		"English subtitle texts",
		"to Chinese",
		"Hello world",
		`"index": 0`,
		"- Daily Show => 每日秀\n- Trump => 特朗普\n",
		"Additional instructions: Keep it casual.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "start") || strings.Contains(prompt, "Start") {
		t.Error("timing must not be sent to the model")
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	prompt := BuildPrompt(Options{TargetLanguage: "Spanish"}, []TranslationItem{{Index: 0, Text: "Hello"}})

	if strings.Contains(prompt, "English") || strings.Contains(prompt, "from ") {
		t.Error("prompt should not contain input language when not specified")
	}
	if !strings.Contains(prompt, "to Spanish") {
		t.Error("prompt should contain target language")
	}
	if strings.Contains(prompt, "Always translate these terms") {
		t.Error("empty glossary should not be rendered")
	}
}

func TestItemsFromSubtitleAndApply(t *testing.T) {
	sub := &subtitle.Subtitle{
		Language: "en",
		Format:   "srt",
		Entries: []subtitle.Entry{
			{Index: 1, StartTime: 0, EndTime: time.Second, Text: "Hello"},
			{Index: 2, StartTime: 2 * time.Second, EndTime: 3 * time.Second, Text: "Bye"},
		},
	}

	items := ItemsFromSubtitle(sub)
	if len(items) != 2 || items[1].Index != 1 || items[1].Start != 2*time.Second {
		t.Fatalf("unexpected items: %+v", items)
	}

	out, err := Apply(sub, []TranslationResult{{Index: 1, Text: "再见"}, {Index: 0, Text: "你好"}}, "zh")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Language != "zh" || out.Entries[0].Text != "你好" || out.Entries[1].EndTime != 3*time.Second {
		t.Errorf("unexpected translation: %+v", out)
	}
	if sub.Entries[0].Text != "Hello" {
		t.Error("Apply must not modify its input")
	}

	if _, err := Apply(sub, []TranslationResult{{Index: 0, Text: "你好"}}, "zh"); err == nil {
		t.Error("expected error for missing result")
	}
	if _, err := Apply(sub, []TranslationResult{{Index: 5, Text: "x"}}, "zh"); err == nil {
		t.Error("expected error for out of range index")
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	opts := Options{InputLanguage: "English", TargetLanguage: "Chinese"}
	translator, err := NewOpenAITranslator(ctx, apiKey, opts)
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	items := []TranslationItem{
		{Index: 0, Text: "Hello"},
		{Index: 1, Text: "Goodbye"},
	}

	results, err := translator.Translate(ctx, items)
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Text == "" {
			t.Errorf("result index %d has empty text", r.Index)
		}
	}
}
