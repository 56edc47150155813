package danmaku

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Count is a label with how many comments carry it.
type Count struct {
	Label string
	N     int
}

// Report summarises a comment track.
type Report struct {
	Total      int
	First      time.Duration
	Last       time.Duration
	AverageGap time.Duration
	MinGap     time.Duration
	Categories []Count
	Styles     []Count
}

// Analyze computes category and style distributions and spacing statistics.
// Records must be sorted by time.
func Analyze(records []Record) Report {
	rep := Report{Total: len(records)}
	if len(records) == 0 {
		return rep
	}

	cats := map[string]int{}
	sty := map[string]int{}
	for i, r := range records {
		cat := r.Category
		if cat == "" {
			cat = "unknown"
		}
		cats[cat]++
		rgb, _ := r.RGB()
		sty[StyleName(r.Mode, rgb, r.FontSize)]++

		if i > 0 {
			gap := r.At() - records[i-1].At()
			if i == 1 || gap < rep.MinGap {
				rep.MinGap = gap
			}
		}
	}

	rep.First = records[0].At()
	rep.Last = records[len(records)-1].At()
	if len(records) > 1 {
		rep.AverageGap = (rep.Last - rep.First) / time.Duration(len(records)-1)
	}
	rep.Categories = sortedCounts(cats)
	rep.Styles = sortedCounts(sty)
	return rep
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, N: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Percent returns n as a share of the total.
func (r Report) Percent(n int) float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(r.Total)
}

// WriteText writes the plain text report followed by the full comment list.
func (r Report) WriteText(w io.Writer, records []Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Danmaku report\n%s\n\n", strings.Repeat("=", 50))
	fmt.Fprintf(&sb, "Total: %d\n\n", r.Total)

	sb.WriteString("Categories:\n")
	for _, c := range r.Categories {
		fmt.Fprintf(&sb, "  %s: %d (%.1f%%)\n", c.Label, c.N, r.Percent(c.N))
	}
	sb.WriteString("\nStyles:\n")
	for _, c := range r.Styles {
		fmt.Fprintf(&sb, "  %s: %d (%.1f%%)\n", c.Label, c.N, r.Percent(c.N))
	}

	if r.Total > 0 {
		sb.WriteString("\nTiming:\n")
		fmt.Fprintf(&sb, "  first: %.1fs\n", r.First.Seconds())
		fmt.Fprintf(&sb, "  last: %.1fs\n", r.Last.Seconds())
		fmt.Fprintf(&sb, "  average gap: %.1fs\n", r.AverageGap.Seconds())
		fmt.Fprintf(&sb, "  smallest gap: %.1fs\n", r.MinGap.Seconds())
	}

	sb.WriteString("\nComments:\n")
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	for _, rec := range records {
		secs := int(rec.At().Seconds())
		fmt.Fprintf(&sb, "[%02d:%02d] %s (%s)\n", secs/60, secs%60, rec.Text, rec.Category)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
