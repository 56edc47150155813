package subtitle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoEntries is returned when a subtitle track has nothing to render.
var ErrNoEntries = errors.New("subtitle has no entries")

// Entry is one timed caption.
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// Duration returns how long the entry stays on screen.
func (e Entry) Duration() time.Duration {
	return e.EndTime - e.StartTime
}

// Subtitle is a complete track in display order.
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// Generator turns transcription segments into a subtitle track.
type Generator interface {
	Generate(segments []Segment) (*Subtitle, error)
}

// Segment is a transcribed span of speech.
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// Texts returns the entry texts in order.
func (s *Subtitle) Texts() []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Text
	}
	return out
}

// Renumber rewrites entry indices to 1..n.
func (s *Subtitle) Renumber() {
	for i := range s.Entries {
		s.Entries[i].Index = i + 1
	}
}

// Validate checks that entries are ordered, non-inverted and non-empty.
func Validate(sub *Subtitle) error {
	if sub == nil || len(sub.Entries) == 0 {
		return ErrNoEntries
	}
	var problems []string
	for i, e := range sub.Entries {
		if e.EndTime < e.StartTime {
			problems = append(problems, fmt.Sprintf(
				"entry %d ends (%s) before it starts (%s)",
				i+1, formatSRTTime(e.EndTime), formatSRTTime(e.StartTime),
			))
		}
		if i > 0 && e.StartTime < sub.Entries[i-1].StartTime {
			problems = append(problems, fmt.Sprintf(
				"entry %d starts before entry %d", i+1, i,
			))
		}
		if strings.TrimSpace(e.Text) == "" {
			problems = append(problems, fmt.Sprintf("entry %d has no text", i+1))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid subtitle: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AdjustSpacing pushes entries forward so consecutive starts are at least
// minGap apart. Each entry keeps its own duration. It returns the number of
// entries that moved.
func AdjustSpacing(sub *Subtitle, minGap time.Duration) int {
	if sub == nil || minGap <= 0 {
		return 0
	}
	moved := 0
	for i := 1; i < len(sub.Entries); i++ {
		prev := sub.Entries[i-1].StartTime
		cur := &sub.Entries[i]
		if cur.StartTime-prev >= minGap {
			continue
		}
		d := cur.Duration()
		cur.StartTime = prev + minGap
		cur.EndTime = cur.StartTime + d
		moved++
	}
	return moved
}
