package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SegmentGenerator converts transcription segments into readable captions:
// long segments are split on word boundaries, tiny ones are merged into the
// following segment, and text is wrapped to at most two lines.
type SegmentGenerator struct {
	MaxCharsPerLine int
	MaxLines        int
	MinDuration     time.Duration
	MaxDuration     time.Duration
}

func NewSegmentGenerator() *SegmentGenerator {
	return &SegmentGenerator{
		MaxCharsPerLine: 42,
		MaxLines:        2,
		MinDuration:     time.Second,
		MaxDuration:     7 * time.Second,
	}
}

func (g *SegmentGenerator) Generate(segments []Segment) (*Subtitle, error) {
	sub := &Subtitle{Entries: []Entry{}, Format: string(FormatSRT)}

	for _, seg := range g.mergeShort(segments) {
		for _, piece := range g.split(seg) {
			sub.Entries = append(sub.Entries, Entry{
				StartTime: piece.StartTime,
				EndTime:   piece.EndTime,
				Text:      g.wrap(piece.Text),
			})
		}
	}
	sub.Renumber()

	return sub, nil
}

// mergeShort folds segments shorter than MinDuration into the next one as
// long as the result still fits a single caption.
func (g *SegmentGenerator) mergeShort(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	var pending *Segment

	for _, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		if pending != nil {
			joined := pending.Text + " " + seg.Text
			if utf8.RuneCountInString(joined) <= g.maxChars() &&
				seg.EndTime-pending.StartTime <= g.MaxDuration {
				seg.StartTime = pending.StartTime
				seg.Text = joined
			} else {
				out = append(out, *pending)
			}
			pending = nil
		}
		if seg.EndTime-seg.StartTime < g.MinDuration {
			s := seg
			pending = &s
			continue
		}
		out = append(out, seg)
	}
	if pending != nil {
		out = append(out, *pending)
	}
	return out
}

func (g *SegmentGenerator) maxChars() int {
	return g.MaxCharsPerLine * g.MaxLines
}

// split divides a segment into pieces bounded by both length and duration.
// Each piece gets time in proportion to its share of the characters.
func (g *SegmentGenerator) split(seg Segment) []Segment {
	total := seg.EndTime - seg.StartTime
	chars := utf8.RuneCountInString(seg.Text)
	if chars <= g.maxChars() && total <= g.MaxDuration {
		return []Segment{seg}
	}

	words := strings.Fields(seg.Text)
	pieces := (chars + g.maxChars() - 1) / g.maxChars()
	if byTime := int(total/g.MaxDuration) + 1; byTime > pieces {
		pieces = byTime
	}
	if pieces > len(words) {
		pieces = len(words)
	}
	if pieces <= 1 {
		return []Segment{seg}
	}

	perPiece := (len(words) + pieces - 1) / pieces
	var out []Segment
	start := seg.StartTime
	used := 0
	for len(words) > 0 {
		n := min(perPiece, len(words))
		text := strings.Join(words[:n], " ")
		words = words[n:]
		used += utf8.RuneCountInString(text) + 1

		end := seg.StartTime + time.Duration(float64(total)*float64(used)/float64(chars+1))
		if len(words) == 0 || end > seg.EndTime {
			end = seg.EndTime
		}
		out = append(out, Segment{StartTime: start, EndTime: end, Text: text})
		start = end
	}
	return out
}

// wrap breaks text into two lines at the word boundary nearest the middle.
func (g *SegmentGenerator) wrap(text string) string {
	n := utf8.RuneCountInString(text)
	if n <= g.MaxCharsPerLine {
		return text
	}
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	best, bestDiff, length := 0, n, 0
	for i, w := range words[:len(words)-1] {
		if i > 0 {
			length++
		}
		length += utf8.RuneCountInString(w)
		diff := length - n/2
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i+1, diff
		}
	}
	return strings.Join(words[:best], " ") + "\n" + strings.Join(words[best:], " ")
}
