package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CueFile is an SRT or VTT file. Both formats are a list of blank-line
// separated cue blocks and share one parser.
type CueFile struct {
	format  Format
	entries []Entry
}

// ParseSRT reads SubRip cues from r.
func ParseSRT(r io.Reader) (*Subtitle, error) {
	entries, err := parseCues(r, FormatSRT)
	if err != nil {
		return nil, err
	}
	return &Subtitle{Entries: entries, Format: string(FormatSRT)}, nil
}

// ParseVTT reads WebVTT cues from r.
func ParseVTT(r io.Reader) (*Subtitle, error) {
	entries, err := parseCues(r, FormatVTT)
	if err != nil {
		return nil, err
	}
	return &Subtitle{Entries: entries, Format: string(FormatVTT)}, nil
}

// ReadSRTFile parses the SRT file at path.
func ReadSRTFile(path string) (*Subtitle, error) {
	f, err := openCueFile(path, FormatSRT)
	if err != nil {
		return nil, err
	}
	return f.Subtitle(), nil
}

func openCueFile(path string, format Format) (*CueFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(string(format)), err)
	}
	defer func() {
		_ = file.Close()
	}()

	entries, err := parseCues(file, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &CueFile{format: format, entries: entries}, nil
}

func parseCues(r io.Reader, format Format) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []Entry
		block   []string
		lineNum int
		start   int
	)

	flush := func() error {
		defer func() { block = nil }()
		if len(block) == 0 {
			return nil
		}
		entry, ok, err := parseCueBlock(block, format)
		if err != nil {
			return fmt.Errorf("line %d: %w", start, err)
		}
		if ok {
			if entry.Index == 0 {
				entry.Index = len(entries) + 1
			}
			entries = append(entries, entry)
		}
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			start = lineNum
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", format, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

// parseCueBlock returns ok=false for blocks that carry no cue, such as the
// WEBVTT header or NOTE and STYLE blocks.
func parseCueBlock(block []string, format Format) (Entry, bool, error) {
	first := strings.TrimSpace(block[0])
	if format == FormatVTT {
		for _, prefix := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
			if strings.HasPrefix(first, prefix) {
				return Entry{}, false, nil
			}
		}
	}

	timingAt := -1
	for i := 0; i < len(block) && i < 2; i++ {
		if strings.Contains(block[i], "-->") {
			timingAt = i
			break
		}
	}
	if timingAt < 0 {
		if format == FormatSRT {
			return Entry{}, false, fmt.Errorf("cue %q has no timing line", first)
		}
		return Entry{}, false, nil
	}

	var entry Entry
	if timingAt == 1 && format == FormatSRT {
		if n, err := strconv.Atoi(first); err == nil {
			entry.Index = n
		}
	}

	startStr, rest, _ := strings.Cut(block[timingAt], "-->")
	endFields := strings.Fields(rest)
	if len(endFields) == 0 {
		return Entry{}, false, fmt.Errorf("cue timing %q has no end time", block[timingAt])
	}

	var err error
	if entry.StartTime, err = ParseSRTTime(startStr); err != nil {
		return Entry{}, false, fmt.Errorf("invalid start: %w", err)
	}
	// VTT cue settings may follow the end time
	if entry.EndTime, err = ParseSRTTime(endFields[0]); err != nil {
		return Entry{}, false, fmt.Errorf("invalid end: %w", err)
	}

	text := block[timingAt+1:]
	if len(text) == 0 {
		return Entry{}, false, nil
	}
	entry.Text = strings.Join(text, "\n")
	return entry, true, nil
}

func (f *CueFile) Format() Format {
	return f.format
}

func (f *CueFile) Subtitle() *Subtitle {
	entries := make([]Entry, len(f.entries))
	copy(entries, f.entries)
	return &Subtitle{
		Entries: entries,
		Format:  string(f.format),
	}
}

func (f *CueFile) SetText(index int, text string) error {
	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf("index %d out of range (0-%d)", index, len(f.entries)-1)
	}
	f.entries[index].Text = text
	return nil
}

func (f *CueFile) Write(path string) error {
	writer, err := NewWriter(f.format)
	if err != nil {
		return err
	}
	return writer.Write(f.Subtitle(), path)
}
