package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/mgpai22/bilisub/internal/transcribe"
	"github.com/mgpai22/bilisub/internal/translate"
)

// resolveAPIKey prefers the flag value and falls back to env.
func resolveAPIKey(flagValue, env string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env == "" {
		return "", nil
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	return "", fmt.Errorf(
		"API key is required: use --api-key flag or set %s environment variable",
		env,
	)
}

// newTranscriber builds a transcriber from the config, with flag overrides
// already applied to opts.
func newTranscriber(ctx context.Context, provider transcribe.Provider, apiKey string, opts transcribe.Options) (transcribe.Transcriber, error) {
	if provider == transcribe.ProviderOpenAI {
		key, err := resolveAPIKey(apiKey, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		apiKey = key
	}
	return transcribe.Factory(ctx, provider, apiKey, opts)
}

// translateOptions maps the [translate] config section onto translator
// options.
func translateOptions(workDir string) translate.Options {
	t := cfg.Translate
	return translate.Options{
		InputLanguage:  t.SourceLanguage,
		TargetLanguage: t.TargetLanguage,
		Model:          t.Model,
		BatchSize:      t.BatchSize,
		Glossary:       t.Glossary,
		WorkDir:        workDir,
		Timeout:        time.Duration(t.ManualTimeoutSeconds) * time.Second,
		PollInterval:   time.Duration(t.PollIntervalSeconds) * time.Second,
		Logger:         logger,
	}
}

// translatorSession owns the translator and the cache it may sit on.
type translatorSession struct {
	mu    sync.Mutex
	cache *translate.Cache
}

func (s *translatorSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		_ = s.cache.Close()
		s.cache = nil
	}
}

// build creates the translator for provider. Remote providers are wrapped
// with the SQLite cache when caching is on; the manual provider never is.
func (s *translatorSession) build(ctx context.Context, provider translate.Provider, apiKey string, opts translate.Options, useCache bool) (translate.Translator, error) {
	key, err := resolveAPIKey(apiKey, translate.APIKeyEnv(provider))
	if err != nil {
		return nil, err
	}
	tr, err := translate.Factory(ctx, provider, key, opts)
	if err != nil {
		return nil, err
	}
	if !useCache || provider == translate.ProviderManual || cfg.Paths.CacheDB == "" {
		return tr, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		cache, err := translate.OpenCache(cfg.Paths.CacheDB)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return translate.NewCachedTranslator(tr, s.cache, provider, opts), nil
}

// newProgress returns a callback that draws an encode progress bar on a
// terminal, or nil when stderr is not one.
func newProgress(description string, total time.Duration) (func(time.Duration), func()) {
	if total <= 0 || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil, func() {}
	}
	bar := progressbar.NewOptions64(
		int64(total.Seconds()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionThrottle(200*time.Millisecond),
	)
	var mu sync.Mutex
	update := func(pos time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Set64(min(int64(pos.Seconds()), int64(total.Seconds())))
	}
	return update, func() { _ = bar.Finish(); fmt.Fprintln(os.Stderr) }
}

func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}
