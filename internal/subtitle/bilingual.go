package subtitle

import (
	"fmt"
	"strings"
	"unicode"
)

// MergeBilingual pairs en and zh by position into a single track with the
// English timing. Each cue holds the Chinese text above the English text.
// Only the common prefix is paired when the lengths differ.
func MergeBilingual(en, zh *Subtitle) (*Subtitle, error) {
	if en == nil || len(en.Entries) == 0 {
		return nil, fmt.Errorf("english track: %w", ErrNoEntries)
	}
	if zh == nil || len(zh.Entries) == 0 {
		return nil, fmt.Errorf("chinese track: %w", ErrNoEntries)
	}

	n := min(len(en.Entries), len(zh.Entries))
	out := &Subtitle{Language: "zh-en", Format: string(FormatSRT), Entries: make([]Entry, n)}
	for i := 0; i < n; i++ {
		e := en.Entries[i]
		out.Entries[i] = Entry{
			Index:     i + 1,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Text:      strings.TrimSpace(zh.Entries[i].Text) + "\n" + strings.TrimSpace(e.Text),
		}
	}
	return out, nil
}

// SplitBilingual separates a combined track back into its English and
// Chinese tracks. Lines containing Han characters are Chinese; the rest
// are English, so the line order inside a cue does not matter.
func SplitBilingual(sub *Subtitle) (en, zh *Subtitle, err error) {
	if sub == nil || len(sub.Entries) == 0 {
		return nil, nil, ErrNoEntries
	}

	en = &Subtitle{Language: "en", Format: sub.Format, Entries: make([]Entry, len(sub.Entries))}
	zh = &Subtitle{Language: "zh", Format: sub.Format, Entries: make([]Entry, len(sub.Entries))}
	var chineseLines int
	for i, e := range sub.Entries {
		var enLines, zhLines []string
		for _, line := range strings.Split(e.Text, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case hasHan(line):
				zhLines = append(zhLines, line)
			default:
				enLines = append(enLines, line)
			}
		}
		chineseLines += len(zhLines)

		en.Entries[i] = Entry{Index: i + 1, StartTime: e.StartTime, EndTime: e.EndTime, Text: strings.Join(enLines, "\n")}
		zh.Entries[i] = Entry{Index: i + 1, StartTime: e.StartTime, EndTime: e.EndTime, Text: strings.Join(zhLines, "\n")}
	}
	if chineseLines == 0 {
		return nil, nil, fmt.Errorf("no Chinese lines found; not a bilingual track")
	}
	return en, zh, nil
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
