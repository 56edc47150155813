package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

const (
	ManualPromptFile   = "translation_prompt.txt"
	ManualResponseFile = "subtitles/chinese_translation.srt"

	defaultPollInterval = 2 * time.Second
)

// ManualTranslator hands the work to a person. It writes a prompt file with
// the source cues and waits for a translated SRT to be dropped next to it.
type ManualTranslator struct {
	options      Options
	promptPath   string
	responsePath string
	pollInterval time.Duration
	logger       *logging.Logger
}

func NewManualTranslator(opts Options) (*ManualTranslator, error) {
	if opts.WorkDir == "" {
		return nil, fmt.Errorf("manual translation needs a working directory")
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &ManualTranslator{
		options:      opts,
		promptPath:   filepath.Join(opts.WorkDir, ManualPromptFile),
		responsePath: filepath.Join(opts.WorkDir, filepath.FromSlash(ManualResponseFile)),
		pollInterval: poll,
		logger:       logging.OrNop(opts.Logger),
	}, nil
}

func (t *ManualTranslator) PromptPath() string   { return t.promptPath }
func (t *ManualTranslator) ResponsePath() string { return t.responsePath }

// Translate writes the prompt and blocks until the response file is present
// and no longer growing, ctx is done or the timeout passes. A response that
// already exists is used as is.
func (t *ManualTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	if _, err := os.Stat(t.responsePath); err != nil {
		if err := t.writePrompt(items); err != nil {
			return nil, err
		}
		t.logger.Infow("Waiting for manual translation",
			"prompt", t.promptPath,
			"response", t.responsePath,
			"timeout", t.options.Timeout.String(),
		)
		if err := t.wait(ctx); err != nil {
			return nil, err
		}
	}

	translated, err := subtitle.ReadSRTFile(t.responsePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manual translation: %w", err)
	}
	if len(translated.Entries) != len(items) {
		return nil, fmt.Errorf(
			"manual translation has %d entries, expected %d",
			len(translated.Entries),
			len(items),
		)
	}

	results := make([]TranslationResult, len(items))
	for i, item := range items {
		results[i] = TranslationResult{Index: item.Index, Text: translated.Entries[i].Text}
	}
	t.logger.Infow("Manual translation loaded", "entries", len(results))
	return results, nil
}

func (t *ManualTranslator) writePrompt(items []TranslationItem) error {
	source := &subtitle.Subtitle{Entries: make([]subtitle.Entry, len(items))}
	for i, item := range items {
		source.Entries[i] = subtitle.Entry{
			Index:     i + 1,
			StartTime: item.Start,
			EndTime:   item.End,
			Text:      item.Text,
		}
	}

	var sb strings.Builder
	from := t.options.InputLanguage
	if from == "" {
		from = "the source language"
	}
	fmt.Fprintf(&sb, "Translate the following SRT subtitles from %s to %s.\n\n", from, t.options.TargetLanguage)
	sb.WriteString("Requirements:\n")
	sb.WriteString("1. Keep every cue number and timestamp exactly as given.\n")
	sb.WriteString("2. Translate naturally for a Bilibili audience, keeping jokes and tone.\n")
	sb.WriteString("3. Keep each cue short enough to read on screen.\n")
	sb.WriteString("4. Return the complete SRT with the same number of cues.\n\n")
	writeGlossary(&sb, t.options.Glossary)
	if t.options.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", t.options.Prompt)
	}
	fmt.Fprintf(&sb, "Save the result as %s.\n\n", t.responsePath)
	sb.WriteString("SRT:\n\n")
	sb.WriteString(subtitle.FormatSRTText(source))

	if err := os.MkdirAll(filepath.Dir(t.responsePath), 0o755); err != nil {
		return fmt.Errorf("failed to create translation directory: %w", err)
	}
	if err := os.WriteFile(t.promptPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write translation prompt: %w", err)
	}
	return nil
}

// wait polls for the response file and returns once its size holds steady
// across two polls.
func (t *ManualTranslator) wait(ctx context.Context) error {
	if t.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.options.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	lastSize := int64(-1)
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrTimeout, t.responsePath)
			}
			return ctx.Err()
		case <-ticker.C:
		}

		info, err := os.Stat(t.responsePath)
		if err != nil {
			continue
		}
		if info.Size() > 0 && info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()
	}
}
