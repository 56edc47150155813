package danmaku

import (
	"fmt"
	"time"

	"github.com/mgpai22/bilisub/internal/subtitle"
)

// ASSStyle is the style every danmaku event uses.
const ASSStyle = "Danmaku"

type ASSOptions struct {
	Width    int
	Height   int
	Display  time.Duration
	Font     string
	FontSize int
}

func (o *ASSOptions) defaults() {
	if o.Width <= 0 {
		o.Width = 1920
	}
	if o.Height <= 0 {
		o.Height = 1080
	}
	if o.Display <= 0 {
		o.Display = 3 * time.Second
	}
	if o.Font == "" {
		o.Font = "Microsoft YaHei"
	}
	if o.FontSize <= 0 {
		o.FontSize = 25
	}
}

// ToASS lays comments out for burning. Scrolling comments cross the middle
// of the frame right to left, top and bottom comments are pinned 100px from
// the edge. Each comment carries its own colour and size override.
func ToASS(records []Record, opts ASSOptions) (*subtitle.Document, error) {
	opts.defaults()

	doc := &subtitle.Document{
		Title:    "Danmaku",
		PlayResX: opts.Width,
		PlayResY: opts.Height,
		Styles: []subtitle.StyleDef{{
			Name:      ASSStyle,
			Font:      opts.Font,
			Size:      opts.FontSize,
			Primary:   "&H00FFFFFF",
			Secondary: "&H000000FF",
			Outline:   "&H00000000",
			Back:      "&H80000000",
			Border:    2,
			Alignment: 2,
			MarginL:   10,
			MarginR:   10,
			MarginV:   10,
		}},
	}

	for i, r := range records {
		rgb, err := r.RGB()
		if err != nil {
			return nil, fmt.Errorf("danmaku %d: %w", i, err)
		}
		size := r.FontSize
		if size <= 0 {
			size = opts.FontSize
		}
		doc.Add(subtitle.Event{
			Start:    r.At(),
			End:      r.At() + opts.Display,
			Style:    ASSStyle,
			Override: placement(r.Mode, opts.Width, opts.Height) + fmt.Sprintf(`{\c%s\fs%d}`, ASSColor(rgb), size),
			Text:     r.Text,
		})
	}
	return doc, nil
}

func placement(mode, w, h int) string {
	switch mode {
	case ModeTop:
		return fmt.Sprintf(`{\pos(%d,100)}`, w/2)
	case ModeBottom:
		return fmt.Sprintf(`{\pos(%d,%d)}`, w/2, h-100)
	default:
		return fmt.Sprintf(`{\move(%d,%d,0,%d)}`, w, h/2, h/2)
	}
}
