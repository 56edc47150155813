package danmaku

import (
	"fmt"
	"sort"
)

// Bilibili comment modes.
const (
	ModeScroll = 1
	ModeBottom = 4
	ModeTop    = 5
)

// Style is the rendered look of a comment.
type Style struct {
	Mode     int
	Color    int
	FontSize int
}

var styles = map[string]Style{
	"scroll":      {ModeScroll, 0xFFFFFF, 25},
	"top":         {ModeTop, 0xFFFFFF, 24},
	"bottom":      {ModeBottom, 0xFFFFFF, 24},
	"red_scroll":  {ModeScroll, 0xFF0000, 26},
	"yellow":      {ModeScroll, 0xFFFF00, 25},
	"green":       {ModeScroll, 0x00FF00, 25},
	"blue":        {ModeScroll, 0x0000FF, 25},
	"big_red":     {ModeScroll, 0xFF0000, 30},
	"small_white": {ModeScroll, 0xFFFFFF, 20},
}

// LookupStyle returns the named style.
func LookupStyle(name string) (Style, error) {
	s, ok := styles[name]
	if !ok {
		return Style{}, fmt.Errorf("unknown danmaku style %q", name)
	}
	return s, nil
}

// StyleName finds the style matching a record, or describes it by mode.
func StyleName(mode, color, size int) string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := styles[name]
		if s.Mode == mode && s.Color == color && s.FontSize == size {
			return name
		}
	}
	return fmt.Sprintf("mode%d/#%06X/%d", mode, color, size)
}

// ASSColor converts a 0xRRGGBB integer to the ASS &H00BBGGRR form.
func ASSColor(rgb int) string {
	r := (rgb >> 16) & 0xFF
	g := (rgb >> 8) & 0xFF
	b := rgb & 0xFF
	return fmt.Sprintf("&H00%02X%02X%02X", b, g, r)
}
