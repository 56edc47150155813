package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// ASSWriter writes a single-style ASS track.
type ASSWriter struct {
	Title string
	Style StyleDef
}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title: "bilisub",
			Style: DefaultStyle(),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, renderCues(sub, "", formatSRTTime))
}

func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, renderCues(sub, "WEBVTT\n\n", formatVTTTime))
}

// FormatSRTText renders sub as SubRip text with entries renumbered from 1.
func FormatSRTText(sub *Subtitle) string {
	return renderCues(sub, "", formatSRTTime)
}

func renderCues(sub *Subtitle, header string, stamp func(time.Duration) string) string {
	var sb strings.Builder
	sb.WriteString(header)
	for i, entry := range sub.Entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1, stamp(entry.StartTime), stamp(entry.EndTime), entry.Text)
	}
	return sb.String()
}

func (w *ASSWriter) Write(sub *Subtitle, path string) error {
	style := w.Style
	if style.Name == "" {
		style.Name = "Default"
	}
	doc := &Document{Title: w.Title, Styles: []StyleDef{style}}
	for _, entry := range sub.Entries {
		doc.Add(Event{
			Start: entry.StartTime,
			End:   entry.EndTime,
			Style: style.Name,
			Text:  entry.Text,
		})
	}
	return doc.Write(path)
}

func writeFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// GetFormatFromExtension maps a file extension to a format. Unknown
// extensions return the empty format.
func GetFormatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	default:
		return ""
	}
}

func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}
