package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const translatedSRT = `1
00:00:01,000 --> 00:00:02,000
你好

2
00:00:03,000 --> 00:00:04,500
再见
`

func manualItems() []TranslationItem {
	return []TranslationItem{
		{Index: 0, Text: "Hello", Start: time.Second, End: 2 * time.Second},
		{Index: 1, Text: "Goodbye", Start: 3 * time.Second, End: 4500 * time.Millisecond},
	}
}

func newManual(t *testing.T, timeout time.Duration) (*ManualTranslator, string) {
	t.Helper()
	dir := t.TempDir()
	tr, err := NewManualTranslator(Options{
		InputLanguage:  "English",
		TargetLanguage: "Chinese",
		Glossary:       map[string]string{"Trump": "特朗普"},
		WorkDir:        dir,
		Timeout:        timeout,
		PollInterval:   10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewManualTranslator: %v", err)
	}
	return tr, dir
}

func TestManualTranslatorWaitsForResponse(t *testing.T) {
	tr, dir := newManual(t, 5*time.Second)

	go func() {
		// wait for the prompt before answering
		for {
			if _, err := os.Stat(tr.PromptPath()); err == nil {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		_ = os.WriteFile(tr.ResponsePath(), []byte(translatedSRT), 0o644)
	}()

	results, err := tr.Translate(context.Background(), manualItems())
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(results) != 2 || results[0].Text != "你好" || results[1].Text != "再见" {
		t.Errorf("unexpected results: %+v", results)
	}

	prompt, err := os.ReadFile(filepath.Join(dir, ManualPromptFile))
	if err != nil {
		t.Fatalf("read prompt: %v", err)
	}
	for _, want := range []string{
		"from English to Chinese",
		"- Trump => 特朗普",
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n",
		"2\n00:00:03,000 --> 00:00:04,500\nGoodbye\n",
	} {
		if !strings.Contains(string(prompt), want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestManualTranslatorUsesExistingResponse(t *testing.T) {
	tr, _ := newManual(t, time.Millisecond)
	if err := os.MkdirAll(filepath.Dir(tr.ResponsePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tr.ResponsePath(), []byte(translatedSRT), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := tr.Translate(context.Background(), manualItems())
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results", len(results))
	}
	if _, err := os.Stat(tr.PromptPath()); !os.IsNotExist(err) {
		t.Error("prompt should not be written when a response exists")
	}
}

func TestManualTranslatorTimeout(t *testing.T) {
	tr, _ := newManual(t, 50*time.Millisecond)
	_, err := tr.Translate(context.Background(), manualItems())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestManualTranslatorCancelled(t *testing.T) {
	tr, _ := newManual(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Translate(ctx, manualItems())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestManualTranslatorCountMismatch(t *testing.T) {
	tr, _ := newManual(t, time.Second)
	if err := os.MkdirAll(filepath.Dir(tr.ResponsePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	single := "1\n00:00:01,000 --> 00:00:02,000\n你好\n"
	if err := os.WriteFile(tr.ResponsePath(), []byte(single), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := tr.Translate(context.Background(), manualItems())
	if err == nil || !strings.Contains(err.Error(), "has 1 entries, expected 2") {
		t.Fatalf("expected count mismatch, got %v", err)
	}
}

func TestNewManualTranslatorNeedsWorkDir(t *testing.T) {
	if _, err := NewManualTranslator(Options{TargetLanguage: "Chinese"}); err == nil {
		t.Error("expected error without work dir")
	}
}
