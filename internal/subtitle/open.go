package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File is a parsed subtitle file that keeps its format specific metadata so
// it can be written back after the text changes.
type File interface {
	Format() Format
	Subtitle() *Subtitle
	SetText(index int, text string) error
	Write(path string) error
}

func Open(path string) (File, error) {
	switch GetFormatFromExtension(path) {
	case FormatSRT:
		return openCueFile(path, FormatSRT)
	case FormatVTT:
		return openCueFile(path, FormatVTT)
	case FormatASS:
		return ParseASSFile(path)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", strings.ToLower(filepath.Ext(path)))
	}
}
