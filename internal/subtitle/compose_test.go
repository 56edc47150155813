package subtitle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/bilisub/internal/config"
)

func sampleTracks() (*Subtitle, *Subtitle) {
	en := &Subtitle{Entries: []Entry{
		{Index: 1, StartTime: time.Second, EndTime: 3 * time.Second, Text: "Hello there"},
		{Index: 2, StartTime: 4 * time.Second, EndTime: 6500 * time.Millisecond, Text: "Second\nline"},
	}}
	zh := &Subtitle{Entries: []Entry{
		{Index: 1, StartTime: 1100 * time.Millisecond, EndTime: 3 * time.Second, Text: "你好"},
		{Index: 2, StartTime: 4 * time.Second, EndTime: 6 * time.Second, Text: "第二句"},
	}}
	return en, zh
}

func TestComposeBilingual(t *testing.T) {
	en, zh := sampleTracks()
	layout := config.Default().Layout

	doc, err := Compose(en, zh, layout, ComposeOptions{Mode: ModeBilingual, Title: "demo"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	out := doc.String()
	wantLines := []string{
		"Style: Chinese,PingFang SC,22,&Hffffff,&Hffffff,&H000000,&H80000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,60,1",
		"Style: English,Arial,18,&Hffffff,&Hffffff,&H000000,&H80000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,20,1",
		"Style: Watermark,PingFang SC,24,&Hffffff,&Hffffff,&H000000,&H80000000,-1,0,0,0,100,100,0,0,1,1,0,9,10,15,15,1",
		"Dialogue: 0,0:00:01.00,0:00:03.00,Chinese,,0,0,0,,你好",
		"Dialogue: 0,0:00:01.00,0:00:03.00,English,,0,0,0,,Hello there",
		"Dialogue: 0,0:00:04.00,0:00:06.50,English,,0,0,0,,Second\\Nline",
		"Dialogue: 0,0:00:00.00,9:59:59.99,Watermark,,0,0,0,,董卓主演脱口秀",
		"PlayResX: 1920",
		"Title: demo",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("output missing line %q\n%s", want, out)
		}
	}

	// chinese precedes english for the same cue and uses the english timing
	zhIdx := strings.Index(out, ",Chinese,,0,0,0,,第二句")
	enIdx := strings.Index(out, ",English,,0,0,0,,Second")
	if zhIdx < 0 || enIdx < 0 || zhIdx > enIdx {
		t.Errorf("expected chinese dialogue before english, got zh=%d en=%d", zhIdx, enIdx)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:04.00,0:00:06.50,Chinese") {
		t.Error("chinese event should take english timing")
	}
	if got := len(doc.Events); got != 5 {
		t.Errorf("events = %d, want 5", got)
	}
}

func TestComposeChineseOnlyUsesLowerMargin(t *testing.T) {
	_, zh := sampleTracks()
	layout := config.Default().Layout
	layout.WatermarkText = ""

	doc, err := Compose(nil, zh, layout, ComposeOptions{Mode: ModeChinese})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	style, ok := doc.Style(StyleChinese)
	if !ok {
		t.Fatal("missing Chinese style")
	}
	if style.MarginV != 40 {
		t.Errorf("MarginV = %d, want 40", style.MarginV)
	}
	if _, ok := doc.Style(StyleWatermark); ok {
		t.Error("watermark style should be absent without watermark text")
	}
	if len(doc.Events) != 2 {
		t.Errorf("events = %d, want 2", len(doc.Events))
	}
	if doc.Events[0].Start != 1100*time.Millisecond {
		t.Errorf("chinese-only should keep its own timing, got %v", doc.Events[0].Start)
	}
}

func TestComposeMismatchedLengthsPairsPrefix(t *testing.T) {
	en, zh := sampleTracks()
	zh.Entries = zh.Entries[:1]
	layout := config.Default().Layout
	layout.WatermarkText = ""

	doc, err := Compose(en, zh, layout, ComposeOptions{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(doc.Events) != 2 {
		t.Errorf("events = %d, want 2", len(doc.Events))
	}
}

func TestComposeErrors(t *testing.T) {
	en, zh := sampleTracks()
	layout := config.Default().Layout

	tests := []struct {
		name string
		en   *Subtitle
		zh   *Subtitle
		mode Mode
	}{
		{"bilingual without chinese", en, nil, ModeBilingual},
		{"bilingual without english", &Subtitle{}, zh, ModeBilingual},
		{"chinese without chinese", en, &Subtitle{}, ModeChinese},
		{"english without english", nil, zh, ModeEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(tt.en, tt.zh, layout, ComposeOptions{Mode: tt.mode})
			if !errors.Is(err, ErrNoEntries) {
				t.Errorf("expected ErrNoEntries, got %v", err)
			}
		})
	}

	if _, err := Compose(en, zh, layout, ComposeOptions{Mode: "vertical"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestComposeWriteIsReadable(t *testing.T) {
	en, zh := sampleTracks()
	doc, err := Compose(en, zh, config.Default().Layout, ComposeOptions{Mode: ModeBilingual})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	path := filepath.Join(t.TempDir(), "subtitles", "bilingual.ass")
	if err := doc.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}

	file, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sub := file.Subtitle()
	if len(sub.Entries) != 5 {
		t.Fatalf("entries = %d, want 5", len(sub.Entries))
	}
	if sub.Entries[3].Text != "Second\nline" {
		t.Errorf("entry 3 text = %q", sub.Entries[3].Text)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeBilingual, "ZH": ModeChinese, "english": ModeEnglish} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("both"); err == nil {
		t.Error("expected error")
	}
}
