package translate

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mgpai22/bilisub/internal/logging"
)

//go:embed cache_schema.sql
var cacheSchemaSQL string

// Cache stores finished translations in SQLite.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(cacheSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached translation of text, if any.
func (c *Cache) Lookup(ctx context.Context, sourceLang, targetLang, text string) (string, bool, error) {
	var out string
	err := c.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translations
         WHERE source_lang = ? AND target_lang = ? AND source_text = ?`,
		cacheLang(sourceLang), cacheLang(targetLang), cacheText(text),
	).Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup translation: %w", err)
	}
	return out, true, nil
}

// Store records a translation, replacing an older one for the same text.
func (c *Cache) Store(ctx context.Context, sourceLang, targetLang, provider, text, translated string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO translations (source_lang, target_lang, source_text, translated_text, provider, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (source_lang, target_lang, source_text)
         DO UPDATE SET translated_text = excluded.translated_text,
                       provider = excluded.provider,
                       created_at = excluded.created_at`,
		cacheLang(sourceLang), cacheLang(targetLang), cacheText(text),
		translated, provider, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store translation: %w", err)
	}
	return nil
}

// Count returns the number of cached translations.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM translations").Scan(&n); err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return n, nil
}

func cacheLang(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func cacheText(s string) string { return strings.TrimSpace(s) }

// CacheStats counts lookups made through a CachedTranslator.
type CacheStats struct {
	Hits   int
	Misses int
}

// CachedTranslator answers from the cache and forwards only misses.
type CachedTranslator struct {
	next     Translator
	cache    *Cache
	provider Provider
	options  Options
	logger   *logging.Logger

	mu    sync.Mutex
	stats CacheStats
}

func NewCachedTranslator(next Translator, cache *Cache, provider Provider, opts Options) *CachedTranslator {
	return &CachedTranslator{
		next:     next,
		cache:    cache,
		provider: provider,
		options:  opts,
		logger:   logging.OrNop(opts.Logger),
	}
}

func (t *CachedTranslator) Stats() CacheStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *CachedTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	return t.translate(ctx, items, func(misses []TranslationItem) ([]TranslationResult, error) {
		return t.next.Translate(ctx, misses)
	})
}

func (t *CachedTranslator) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	return t.translate(ctx, items, func(misses []TranslationItem) ([]TranslationResult, error) {
		return Run(ctx, t.next, misses, concurrency)
	})
}

func (t *CachedTranslator) translate(
	ctx context.Context,
	items []TranslationItem,
	forward func([]TranslationItem) ([]TranslationResult, error),
) ([]TranslationResult, error) {
	src, dst := t.options.InputLanguage, t.options.TargetLanguage

	results := make([]TranslationResult, 0, len(items))
	var misses []TranslationItem
	for _, item := range items {
		cached, ok, err := t.cache.Lookup(ctx, src, dst, item.Text)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, TranslationResult{Index: item.Index, Text: cached})
			continue
		}
		misses = append(misses, item)
	}

	t.mu.Lock()
	t.stats.Hits += len(items) - len(misses)
	t.stats.Misses += len(misses)
	t.mu.Unlock()

	t.logger.Debugw("Translation cache lookup",
		"items", len(items),
		"hits", len(items)-len(misses),
		"misses", len(misses),
	)

	if len(misses) > 0 {
		fresh, err := forward(misses)
		if err != nil {
			return nil, err
		}
		byIndex := make(map[int]string, len(misses))
		for _, item := range misses {
			byIndex[item.Index] = item.Text
		}
		for _, r := range fresh {
			source, ok := byIndex[r.Index]
			if !ok {
				continue
			}
			if err := t.cache.Store(ctx, src, dst, string(t.provider), source, r.Text); err != nil {
				t.logger.Warnw("Failed to cache translation", "index", r.Index, "error", err)
			}
		}
		results = append(results, fresh...)
	}

	sortResults(results)
	return results, nil
}
