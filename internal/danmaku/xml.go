package danmaku

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type biliDocument struct {
	XMLName    xml.Name      `xml:"i"`
	ChatServer string        `xml:"chatserver"`
	ChatID     int           `xml:"chatid"`
	Mission    int           `xml:"mission"`
	MaxLimit   int           `xml:"maxlimit"`
	State      int           `xml:"state"`
	RealName   int           `xml:"real_name"`
	Source     string        `xml:"source"`
	Comments   []biliComment `xml:"d"`
}

type biliComment struct {
	P    string `xml:"p,attr"`
	Text string `xml:",chardata"`
}

// WriteBilibiliXML writes records in the Bilibili danmaku XML format, where
// p is "seconds,mode,size,color,timestamp,pool,user,id".
func WriteBilibiliXML(path string, records []Record) error {
	doc := biliDocument{
		ChatServer: "chat.bilibili.com",
		MaxLimit:   8000,
		Source:     "k-v",
		Comments:   make([]biliComment, 0, len(records)),
	}
	for _, r := range records {
		doc.Comments = append(doc.Comments, biliComment{
			P:    fmt.Sprintf("%.2f,%d,%d,%s,0,0,0,0", r.At().Seconds(), r.Mode, r.FontSize, r.Color),
			Text: r.Text,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bilibili xml: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create danmaku directory: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write bilibili xml: %w", err)
	}
	return nil
}

// ReadBilibiliXML parses a Bilibili danmaku XML export into records.
func ReadBilibiliXML(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bilibili xml: %w", err)
	}
	var doc biliDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse bilibili xml %s: %w", path, err)
	}

	records := make([]Record, 0, len(doc.Comments))
	for i, c := range doc.Comments {
		fields := strings.Split(c.P, ",")
		if len(fields) < 4 {
			return nil, fmt.Errorf("comment %d: malformed p attribute %q", i, c.P)
		}
		secs, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("comment %d: invalid time %q", i, fields[0])
		}
		mode, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("comment %d: invalid mode %q", i, fields[1])
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("comment %d: invalid size %q", i, fields[2])
		}
		if _, err := strconv.Atoi(fields[3]); err != nil {
			return nil, fmt.Errorf("comment %d: invalid color %q", i, fields[3])
		}
		records = append(records, Record{
			Time:     int64(math.Round(secs * 1000)),
			Text:     c.Text,
			Mode:     mode,
			Color:    fields[3],
			FontSize: size,
			Border:   1,
			Opacity:  1.0,
		})
	}
	return records, nil
}
