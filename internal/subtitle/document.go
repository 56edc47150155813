package subtitle

import (
	"fmt"
	"strings"
	"time"
)

const (
	styleFormatLine = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormatLine = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// StyleDef is one entry of the [V4+ Styles] section.
type StyleDef struct {
	Name      string
	Font      string
	Size      int
	Primary   string
	Secondary string
	Outline   string
	Back      string
	Bold      bool
	Border    int
	Shadow    int
	Alignment int
	MarginL   int
	MarginR   int
	MarginV   int
}

// DefaultStyle is a plain white bottom-centered style.
func DefaultStyle() StyleDef {
	return StyleDef{
		Name:      "Default",
		Font:      "Arial",
		Size:      20,
		Primary:   "&H00FFFFFF",
		Secondary: "&H000000FF",
		Outline:   "&H00000000",
		Back:      "&H00000000",
		Border:    2,
		Shadow:    2,
		Alignment: 2,
		MarginL:   10,
		MarginR:   10,
		MarginV:   10,
	}
}

// Line renders the style in V4+ column order.
func (s StyleDef) Line() string {
	bold := 0
	if s.Bold {
		bold = -1
	}
	secondary := s.Secondary
	if secondary == "" {
		secondary = s.Primary
	}
	return fmt.Sprintf(
		"Style: %s,%s,%d,%s,%s,%s,%s,%d,0,0,0,100,100,0,0,1,%d,%d,%d,%d,%d,%d,1",
		s.Name, s.Font, s.Size,
		s.Primary, secondary, s.Outline, s.Back,
		bold, s.Border, s.Shadow, s.Alignment,
		s.MarginL, s.MarginR, s.MarginV,
	)
}

// Event is one Dialogue line. Override, when set, is prepended verbatim as
// an override block such as {\pos(960,100)}.
type Event struct {
	Layer    int
	Start    time.Duration
	End      time.Duration
	Style    string
	Override string
	Text     string
}

// Line renders the dialogue. Newlines in Text become \N.
func (e Event) Line() string {
	return fmt.Sprintf("Dialogue: %d,%s,%s,%s,,0,0,0,,%s%s",
		e.Layer,
		FormatASSTime(e.Start),
		FormatASSTime(e.End),
		e.Style,
		e.Override,
		EscapeASSText(e.Text),
	)
}

// Document is an ASS script built in memory.
type Document struct {
	Title    string
	PlayResX int
	PlayResY int
	Styles   []StyleDef
	Events   []Event
}

func (d *Document) Add(events ...Event) {
	d.Events = append(d.Events, events...)
}

// Style returns the named style.
func (d *Document) Style(name string) (StyleDef, bool) {
	for _, s := range d.Styles {
		if s.Name == name {
			return s, true
		}
	}
	return StyleDef{}, false
}

func (d *Document) String() string {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	if d.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", d.Title)
	}
	sb.WriteString("ScriptType: v4.00+\n")
	if d.PlayResX > 0 && d.PlayResY > 0 {
		fmt.Fprintf(&sb, "PlayResX: %d\nPlayResY: %d\n", d.PlayResX, d.PlayResY)
	}
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString(styleFormatLine + "\n")
	for _, s := range d.Styles {
		sb.WriteString(s.Line() + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString("[Events]\n")
	sb.WriteString(eventFormatLine + "\n")
	for _, e := range d.Events {
		sb.WriteString(e.Line() + "\n")
	}

	return sb.String()
}

// Write saves the document, creating parent directories.
func (d *Document) Write(path string) error {
	return writeFile(path, d.String())
}

// EscapeASSText converts newlines to ASS hard breaks.
func EscapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", "\\N")
}
