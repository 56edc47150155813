package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/bilisub/internal/logging"
)

// maxReplyAttempts bounds how often one batch is re-sent after the model
// answers with something that is not a usable JSON array.
const maxReplyAttempts = 2

var errEmptyReply = errors.New("empty reply")

// completeFunc sends a system and a user message to a chat model and
// returns the text of its reply.
type completeFunc func(ctx context.Context, system, prompt string) (string, error)

// chatTranslator runs the JSON batch protocol on top of any chat model.
// Provider types embed it and only supply send.
type chatTranslator struct {
	provider Provider
	options  Options
	logger   *logging.Logger
	send     completeFunc
}

func newChatTranslator(provider Provider, opts Options, send completeFunc) chatTranslator {
	return chatTranslator{
		provider: provider,
		options:  opts,
		logger:   logging.OrNop(opts.Logger).Named(string(provider)),
		send:     send,
	}
}

func (t *chatTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	return runSequential(ctx, items, batchSizeOr(t.options.BatchSize), t.translateBatch)
}

func (t *chatTranslator) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	return runBatches(ctx, items, batchSizeOr(t.options.BatchSize), concurrency, t.translateBatch)
}

func (t *chatTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	system := systemPrompt(t.options)
	prompt := BuildPrompt(t.options, items)

	var lastErr error
	for attempt := 1; attempt <= maxReplyAttempts; attempt++ {
		reply, err := t.send(ctx, system, prompt)
		if err != nil {
			// the SDK clients already retry transport errors
			return nil, fmt.Errorf("%s request failed: %w", t.provider, err)
		}

		results, err := parseResponseText(string(t.provider), reply, len(items))
		if err == nil {
			return alignResults(items, results), nil
		}
		lastErr = err
		t.logger.Warnw("Unusable model reply",
			"attempt", attempt,
			"first_index", items[0].Index,
			"error", err,
		)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// alignResults keeps the reply indices when they are exactly the batch
// indices. Models sometimes renumber a batch from zero; the reply is then
// matched to the batch by position.
func alignResults(items []TranslationItem, results []TranslationResult) []TranslationResult {
	want := make(map[int]bool, len(items))
	for _, item := range items {
		want[item.Index] = true
	}
	seen := make(map[int]bool, len(results))
	matched := true
	for _, r := range results {
		if !want[r.Index] || seen[r.Index] {
			matched = false
			break
		}
		seen[r.Index] = true
	}
	if matched {
		return results
	}

	aligned := make([]TranslationResult, len(items))
	for i, item := range items {
		aligned[i] = TranslationResult{Index: item.Index, Text: results[i].Text}
	}
	return aligned
}

// systemPrompt sets the register for subtitle work. The per-batch
// instructions and payload live in BuildPrompt.
func systemPrompt(opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"You are a professional subtitle translator producing %s subtitles for online video.\n",
		opts.TargetLanguage,
	)
	sb.WriteString("Keep each line short enough to read at a glance and match the speaker's tone, including jokes and sarcasm.\n")
	sb.WriteString("Names of people, shows and places use their established translations.\n")
	sb.WriteString("You always answer with a JSON array and nothing else.")
	return sb.String()
}
