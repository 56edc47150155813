package subtitle

import (
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/bilisub/internal/config"
	"github.com/mgpai22/bilisub/internal/logging"
)

// Mode selects which tracks end up in a composed ASS file.
type Mode string

const (
	ModeBilingual Mode = "bilingual"
	ModeChinese   Mode = "chinese"
	ModeEnglish   Mode = "english"
)

const (
	StyleChinese   = "Chinese"
	StyleEnglish   = "English"
	StyleWatermark = "Watermark"
)

// WatermarkEnd is the end of the watermark event, the largest time the
// H:MM:SS.cc format expresses with a single hour digit.
const WatermarkEnd = 9*time.Hour + 59*time.Minute + 59*time.Second + 990*time.Millisecond

// ParseMode accepts the mode names used on the command line.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBilingual, "":
		return ModeBilingual, nil
	case ModeChinese, "zh":
		return ModeChinese, nil
	case ModeEnglish, "en":
		return ModeEnglish, nil
	default:
		return "", fmt.Errorf("unknown subtitle mode %q: use bilingual, chinese or english", s)
	}
}

type ComposeOptions struct {
	Mode   Mode
	Title  string
	Logger *logging.Logger
}

// Compose builds an ASS document from the English and Chinese tracks.
//
// In bilingual mode entries are paired by position and take the English
// timing; for each pair the Chinese dialogue is emitted before the English
// one. When the tracks differ in length only the common prefix is paired.
func Compose(en, zh *Subtitle, layout config.Layout, opts ComposeOptions) (*Document, error) {
	logger := logging.OrNop(opts.Logger)
	mode := opts.Mode
	if mode == "" {
		mode = ModeBilingual
	}

	doc := &Document{
		Title:    opts.Title,
		PlayResX: layout.PlayResX,
		PlayResY: layout.PlayResY,
	}

	chinese := layoutStyle(StyleChinese, layout.Chinese, layout)
	english := layoutStyle(StyleEnglish, layout.English, layout)

	switch mode {
	case ModeBilingual:
		if en == nil || len(en.Entries) == 0 {
			return nil, fmt.Errorf("english track: %w", ErrNoEntries)
		}
		if zh == nil || len(zh.Entries) == 0 {
			return nil, fmt.Errorf("chinese track: %w", ErrNoEntries)
		}
		doc.Styles = append(doc.Styles, chinese, english)

		n := len(en.Entries)
		if len(zh.Entries) != n {
			logger.Warnw("Subtitle tracks differ in length, pairing common prefix",
				"english", len(en.Entries),
				"chinese", len(zh.Entries),
			)
			n = min(n, len(zh.Entries))
		}
		for i := 0; i < n; i++ {
			e := en.Entries[i]
			doc.Add(
				Event{Start: e.StartTime, End: e.EndTime, Style: StyleChinese, Text: strings.TrimSpace(zh.Entries[i].Text)},
				Event{Start: e.StartTime, End: e.EndTime, Style: StyleEnglish, Text: strings.TrimSpace(e.Text)},
			)
		}

	case ModeChinese:
		if zh == nil || len(zh.Entries) == 0 {
			return nil, fmt.Errorf("chinese track: %w", ErrNoEntries)
		}
		chinese.MarginV = layout.ChineseOnlyMarginV
		doc.Styles = append(doc.Styles, chinese)
		for _, e := range zh.Entries {
			doc.Add(Event{Start: e.StartTime, End: e.EndTime, Style: StyleChinese, Text: strings.TrimSpace(e.Text)})
		}

	case ModeEnglish:
		if en == nil || len(en.Entries) == 0 {
			return nil, fmt.Errorf("english track: %w", ErrNoEntries)
		}
		doc.Styles = append(doc.Styles, english)
		for _, e := range en.Entries {
			doc.Add(Event{Start: e.StartTime, End: e.EndTime, Style: StyleEnglish, Text: strings.TrimSpace(e.Text)})
		}

	default:
		return nil, fmt.Errorf("unknown subtitle mode %q", mode)
	}

	if layout.WatermarkText != "" {
		doc.Styles = append(doc.Styles, layoutStyle(StyleWatermark, layout.Watermark, layout))
		doc.Add(Event{
			Start: 0,
			End:   WatermarkEnd,
			Style: StyleWatermark,
			Text:  layout.WatermarkText,
		})
	}

	logger.Debugw("Composed ASS document",
		"mode", mode,
		"styles", len(doc.Styles),
		"events", len(doc.Events),
	)

	return doc, nil
}

func layoutStyle(name string, s config.Style, layout config.Layout) StyleDef {
	return StyleDef{
		Name:      name,
		Font:      s.Font,
		Size:      s.Size,
		Primary:   layout.PrimaryColour,
		Secondary: layout.PrimaryColour,
		Outline:   layout.OutlineColour,
		Back:      layout.BackColour,
		Bold:      s.Bold,
		Border:    s.Outline,
		Shadow:    0,
		Alignment: s.Alignment,
		MarginL:   s.MarginL,
		MarginR:   s.MarginR,
		MarginV:   s.MarginV,
	}
}
