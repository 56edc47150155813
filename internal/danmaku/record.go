package danmaku

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Record is one comment in the danmaku_list JSON consumed by editors such as
// JianYing. Time is in milliseconds and Color is a decimal RGB string.
type Record struct {
	Time     int64   `json:"time"`
	Text     string  `json:"text"`
	Mode     int     `json:"mode"`
	Color    string  `json:"color"`
	FontSize int     `json:"fontsize"`
	Border   int     `json:"border"`
	Opacity  float64 `json:"opacity"`
	Category string  `json:"category,omitempty"`
}

// At returns the record time as a duration.
func (r Record) At() time.Duration {
	return time.Duration(r.Time) * time.Millisecond
}

// RGB parses Color.
func (r Record) RGB() (int, error) {
	c, err := strconv.Atoi(r.Color)
	if err != nil {
		return 0, fmt.Errorf("invalid danmaku color %q: %w", r.Color, err)
	}
	return c, nil
}

type document struct {
	DanmakuList []Record `json:"danmaku_list"`
}

// ToRecords resolves item styles into concrete records.
func ToRecords(items []Item) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		s, err := LookupStyle(it.Style)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{
			Time:     it.Time.Milliseconds(),
			Text:     it.Text,
			Mode:     s.Mode,
			Color:    strconv.Itoa(s.Color),
			FontSize: s.FontSize,
			Border:   1,
			Opacity:  1.0,
			Category: string(it.Category),
		})
	}
	return out, nil
}

// WriteJSON writes records as {"danmaku_list": [...]}.
func WriteJSON(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(document{DanmakuList: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode danmaku: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create danmaku directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write danmaku file: %w", err)
	}
	return nil
}

// ReadJSON loads a danmaku_list file and returns the records sorted by time.
func ReadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read danmaku file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse danmaku file %s: %w", path, err)
	}
	for i, r := range doc.DanmakuList {
		if _, err := r.RGB(); err != nil {
			return nil, fmt.Errorf("danmaku %d: %w", i, err)
		}
		if r.Time < 0 {
			return nil, fmt.Errorf("danmaku %d: negative time %d", i, r.Time)
		}
	}
	sort.SliceStable(doc.DanmakuList, func(i, j int) bool {
		return doc.DanmakuList[i].Time < doc.DanmakuList[j].Time
	})
	return doc.DanmakuList, nil
}
