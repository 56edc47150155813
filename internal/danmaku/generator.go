package danmaku

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

// Density scales how many comments are generated.
type Density string

const (
	DensityLow    Density = "low"
	DensityMedium Density = "medium"
	DensityHigh   Density = "high"
)

func (d Density) multiplier() (float64, error) {
	switch d {
	case DensityLow:
		return 0.3, nil
	case DensityMedium, "":
		return 0.6, nil
	case DensityHigh:
		return 1.0, nil
	default:
		return 0, fmt.Errorf("unknown density %q: use low, medium or high", d)
	}
}

// ErrNoDuration is returned when the video length is unknown or zero.
var ErrNoDuration = errors.New("video duration must be positive")

// Item is a generated comment before it is given a concrete style.
type Item struct {
	Time     time.Duration
	Text     string
	Style    string
	Category Category
}

type Options struct {
	Density      Density
	TrumpFocus   bool
	IncludeEmoji bool
	// MinGap is the minimum spacing between consecutive comments.
	MinGap time.Duration
	// MaxHighlights caps transcript driven comments.
	MaxHighlights int
	Seed          uint64
	Logger        *logging.Logger
}

func DefaultOptions() Options {
	return Options{
		Density:       DensityMedium,
		IncludeEmoji:  true,
		MinGap:        2 * time.Second,
		MaxHighlights: 5,
	}
}

// Generator draws comments from the template pools.
type Generator struct {
	opts   Options
	rng    *rand.Rand
	logger *logging.Logger
}

// NewGenerator returns a generator. A zero Seed draws a random one.
func NewGenerator(opts Options) (*Generator, error) {
	if _, err := opts.Density.multiplier(); err != nil {
		return nil, err
	}
	if opts.MinGap <= 0 {
		opts.MinGap = 2 * time.Second
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		opts:   opts,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger: logging.OrNop(opts.Logger),
	}, nil
}

// Generate produces comments for a video of the given length. When a
// transcript is supplied, lines mentioning highlight keywords get an extra
// reaction shortly after they start.
//
// The result is sorted by time and consecutive comments are at least MinGap
// apart. Comments pushed past the end of the video are dropped.
func (g *Generator) Generate(duration time.Duration, transcript *subtitle.Subtitle) ([]Item, error) {
	if duration <= 0 {
		return nil, ErrNoDuration
	}
	mult, _ := g.opts.Density.multiplier()
	secs := duration.Seconds()

	base := max(8, int(secs/15))
	total := int(float64(base) * mult)

	items := make([]Item, 0, total+g.opts.MaxHighlights)
	items = append(items, g.fixed(CategoryOpening, g.uniform(3, 8, secs)))

	dist := weights(g.opts.TrumpFocus, g.opts.IncludeEmoji)
	lo, hi := 10.0, secs-10
	if hi <= lo {
		lo, hi = 0, secs
	}
	for i := 0; i < total-2; i++ {
		cat := g.pickCategory(dist)
		items = append(items, Item{
			Time:     seconds(g.uniform(lo, hi, secs)),
			Text:     g.pick(templates[cat]),
			Style:    g.pickStyle(cat),
			Category: cat,
		})
	}

	items = append(items, g.highlights(transcript, duration)...)
	items = append(items, g.fixed(CategoryEnding, g.uniform(secs-15, secs-5, secs)))

	sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })
	g.AdjustSpacing(items)

	kept := items[:0]
	for _, it := range items {
		if it.Time < duration {
			kept = append(kept, it)
		}
	}
	if dropped := len(items) - len(kept); dropped > 0 {
		g.logger.Debugw("Dropped comments pushed past the end of the video", "dropped", dropped)
	}

	g.logger.Infow("Generated danmaku",
		"count", len(kept),
		"density", g.opts.Density,
		"duration", duration.String(),
	)
	return kept, nil
}

// AdjustSpacing moves any comment closer than MinGap to its predecessor to
// predecessor + MinGap + a random fraction of a second. items must be sorted.
func (g *Generator) AdjustSpacing(items []Item) {
	for i := 1; i < len(items); i++ {
		last := items[i-1].Time
		if items[i].Time-last < g.opts.MinGap {
			jitter := time.Duration(g.rng.Float64() * float64(time.Second))
			items[i].Time = last + g.opts.MinGap + jitter
		}
	}
}

func (g *Generator) highlights(transcript *subtitle.Subtitle, duration time.Duration) []Item {
	if transcript == nil || g.opts.MaxHighlights <= 0 {
		return nil
	}
	var out []Item
	for _, e := range transcript.Entries {
		if len(out) >= g.opts.MaxHighlights {
			break
		}
		if !mentionsKeyword(e.Text) {
			continue
		}
		at := e.StartTime + 500*time.Millisecond
		if at >= duration {
			continue
		}
		out = append(out, Item{
			Time:     at,
			Text:     g.pick(templates[CategoryHighlight]),
			Style:    g.pickStyle(CategoryHighlight),
			Category: CategoryHighlight,
		})
	}
	return out
}

func mentionsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range highlightKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (g *Generator) fixed(cat Category, at float64) Item {
	return Item{
		Time:     seconds(at),
		Text:     g.pick(templates[cat]),
		Style:    g.pickStyle(cat),
		Category: cat,
	}
}

func (g *Generator) pickCategory(ws []weight) Category {
	r := g.rng.Float64()
	cum := 0.0
	for _, w := range ws {
		cum += w.p
		if w.p > 0 && r <= cum {
			return w.category
		}
	}
	return CategoryGeneral
}

func (g *Generator) pickStyle(cat Category) string {
	choices, ok := styleChoices[cat]
	if !ok {
		return "scroll"
	}
	return g.pick(choices)
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.IntN(len(pool))]
}

// uniform draws from [lo, hi) clamped to [0, limit].
func (g *Generator) uniform(lo, hi, limit float64) float64 {
	lo = clamp(lo, 0, limit)
	hi = clamp(hi, 0, limit)
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
