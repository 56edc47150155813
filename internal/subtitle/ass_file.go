package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// ASSDialogue is one Dialogue event. Fields holds every column of the
// Events Format line in order, Text included.
type ASSDialogue struct {
	Fields []string
	Start  time.Duration
	End    time.Duration
}

// ASSFile is an ASS script opened for editing. Only dialogue text is ever
// changed; every other line is written back exactly as read, in its
// original position.
type ASSFile struct {
	lines     []string // raw lines; dialogue slots are rebuilt on write
	dialogue  []int    // line number of each dialogue
	events    []ASSDialogue
	columns   []string
	textCol   int
	formatSet bool
}

var leadingTagsRegex = regexp.MustCompile(`^(\{[^}]*\})+`)

// extractLeadingTags splits override blocks such as {\an8}{\pos(10,20)}
// off the front of a dialogue text.
func extractLeadingTags(text string) (string, string) {
	tags := leadingTagsRegex.FindString(text)
	return tags, text[len(tags):]
}

func ParseASSFile(path string) (*ASSFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASS file: %w", err)
	}
	defer f.Close()
	return ParseASS(f)
}

// ParseASS reads an ASS/SSA script. The [Events] section must declare a
// Format line with Start, End and Text columns before its first dialogue.
func ParseASS(r io.Reader) (*ASSFile, error) {
	file := &ASSFile{textCol: -1}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	section := ""
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.ToLower(trimmed[1 : len(trimmed)-1])
			file.lines = append(file.lines, line)
			continue
		}

		if section == "events" {
			key, value, ok := strings.Cut(trimmed, ":")
			switch {
			case ok && strings.EqualFold(key, "Format"):
				if err := file.setFormat(value); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
			case ok && strings.EqualFold(key, "Dialogue"):
				d, err := file.parseDialogue(value)
				if err != nil {
					return nil, fmt.Errorf("failed to parse Dialogue at line %d: %w", lineNum, err)
				}
				file.dialogue = append(file.dialogue, len(file.lines))
				file.events = append(file.events, d)
			}
		}
		file.lines = append(file.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}
	if !file.formatSet {
		return nil, fmt.Errorf("ASS file missing Format line in [Events] section")
	}
	return file, nil
}

func (f *ASSFile) setFormat(value string) error {
	columns := strings.Split(value, ",")
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	f.columns = columns
	f.textCol = f.columnIndex("text")
	if f.textCol < 0 {
		return fmt.Errorf("ASS file missing Text column in Format line")
	}
	if f.columnIndex("start") < 0 || f.columnIndex("end") < 0 {
		return fmt.Errorf("format line has no Start/End columns")
	}
	f.formatSet = true
	return nil
}

// parseDialogue splits value into exactly one field per column. Text is
// the last column and may itself contain commas.
func (f *ASSFile) parseDialogue(value string) (ASSDialogue, error) {
	if !f.formatSet {
		return ASSDialogue{}, fmt.Errorf("dialogue before Format line")
	}
	fields := strings.SplitN(strings.TrimLeft(value, " "), ",", len(f.columns))
	if len(fields) < len(f.columns) {
		return ASSDialogue{}, fmt.Errorf("expected %d fields, got %d", len(f.columns), len(fields))
	}

	d := ASSDialogue{Fields: fields}
	var err error
	if d.Start, err = ParseASSTime(fields[f.columnIndex("start")]); err != nil {
		return d, err
	}
	if d.End, err = ParseASSTime(fields[f.columnIndex("end")]); err != nil {
		return d, err
	}
	return d, nil
}

func (f *ASSFile) columnIndex(name string) int {
	for i, col := range f.columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

func (f *ASSFile) Format() Format {
	return FormatASS
}

// Subtitle returns the dialogue as entries, with ASS line breaks turned
// into newlines. Override tags stay in the text.
func (f *ASSFile) Subtitle() *Subtitle {
	breaks := strings.NewReplacer(`\N`, "\n", `\n`, "\n")
	entries := make([]Entry, len(f.events))
	for i, d := range f.events {
		entries[i] = Entry{
			Index:     i + 1,
			StartTime: d.Start,
			EndTime:   d.End,
			Text:      breaks.Replace(d.Fields[f.textCol]),
		}
	}
	return &Subtitle{Entries: entries, Format: string(FormatASS)}
}

// Styles returns the style names used by dialogue lines, in first-seen order.
func (f *ASSFile) Styles() []string {
	col := f.columnIndex("style")
	if col < 0 {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, d := range f.events {
		name := strings.TrimSpace(d.Fields[col])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func (f *ASSFile) checkIndex(index int) error {
	if index < 0 || index >= len(f.events) {
		return fmt.Errorf("index %d out of range (0-%d)", index, len(f.events)-1)
	}
	return nil
}

// SetText replaces the text of dialogue index, keeping its leading
// override tags.
func (f *ASSFile) SetText(index int, text string) error {
	if err := f.checkIndex(index); err != nil {
		return err
	}
	tags, _ := extractLeadingTags(f.events[index].Fields[f.textCol])
	f.events[index].Fields[f.textCol] = tags + strings.ReplaceAll(text, "\n", `\N`)
	return nil
}

// SetTextWithOverlay stacks translated above the current text, the way the
// bilingual layout puts Chinese above English.
func (f *ASSFile) SetTextWithOverlay(index int, translated string) error {
	if err := f.checkIndex(index); err != nil {
		return err
	}
	tags, original := extractLeadingTags(f.events[index].Fields[f.textCol])
	f.events[index].Fields[f.textCol] = tags + strings.ReplaceAll(translated, "\n", `\N`) + `\N` + original
	return nil
}

func (f *ASSFile) Write(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ASS file: %w", err)
	}

	w := bufio.NewWriter(out)
	next := 0
	for i, line := range f.lines {
		if next < len(f.dialogue) && f.dialogue[next] == i {
			line = "Dialogue: " + strings.Join(f.events[next].Fields, ",")
			next++
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			out.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
