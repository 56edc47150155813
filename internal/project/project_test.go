package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var created = time.Date(2025, 1, 20, 21, 5, 9, 0, time.Local)

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"ascii", "Trump's Press Conference | The Daily Show", "Trumps_Press_Conference__The_Daily_Show"},
		{"full width", "ＡＢＣ　１２３", "ABC_123"},
		{"chinese kept", "特朗普 演讲", "特朗普_演讲"},
		{"only punctuation", "?!*//", "video"},
		{"empty", "   ", "video"},
		{"truncated", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTitle(tt.title); got != tt.want {
				t.Errorf("SafeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	root := t.TempDir()
	p, err := Create(root, "Late Night: Monologue", "https://youtu.be/x", created)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Base(p.Dir) != "Late_Night_Monologue_20250120_210509" {
		t.Errorf("dir = %s", p.Dir)
	}
	for _, sub := range []string{SubtitlesDir, FinalDir, TempDir} {
		if info, err := os.Stat(filepath.Join(p.Dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("missing %s: %v", sub, err)
		}
	}
	if p.Manifest.ID == "" || p.Manifest.Source != "https://youtu.be/x" {
		t.Errorf("unexpected manifest: %+v", p.Manifest)
	}

	_, err = Create(root, "Late Night: Monologue", "", created)
	if !errors.Is(err, ErrProjectExists) {
		t.Fatalf("expected ErrProjectExists, got %v", err)
	}
}

func TestOpenAndSteps(t *testing.T) {
	p, err := Create(t.TempDir(), "Clip", "clip.mp4", created)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.StepDone("transcribe") {
		t.Fatal("nothing has run yet")
	}

	srt := p.Path(KindEnglishSRT)
	if err := os.WriteFile(srt, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.MarkStep("transcribe", srt); err != nil {
		t.Fatalf("MarkStep: %v", err)
	}
	if err := p.MarkStep("transcribe", srt); err != nil {
		t.Fatalf("MarkStep: %v", err)
	}

	reopened, err := Open(p.Dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(reopened.Manifest.Steps) != 1 {
		t.Fatalf("steps = %+v", reopened.Manifest.Steps)
	}
	if got := reopened.Manifest.Steps[0].Outputs; len(got) != 1 || got[0] != "subtitles/english.srt" {
		t.Errorf("outputs = %v", got)
	}
	if !reopened.StepDone("transcribe") {
		t.Error("step should be done")
	}

	if err := os.Remove(srt); err != nil {
		t.Fatal(err)
	}
	if reopened.StepDone("transcribe") {
		t.Error("step with a missing output should not count as done")
	}

	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error opening a directory without a manifest")
	}
}

func TestPaths(t *testing.T) {
	p := &Project{Dir: "/out/Clip_1", Manifest: Manifest{SafeTitle: "Clip"}}
	tests := map[Kind]string{
		KindOriginal:      "/out/Clip_1/original_video.mp4",
		KindChineseSRT:    "/out/Clip_1/subtitles/chinese.srt",
		KindChineseASS:    "/out/Clip_1/subtitles/chinese_only.ass",
		KindDanmakuXML:    "/out/Clip_1/subtitles/danmaku.xml",
		KindBilingualSRT:  "/out/Clip_1/subtitles/bilingual.srt",
		KindJianyingDraft: "/out/Clip_1/final/jianying/draft_content.json",
		KindBilingualMP4:  "/out/Clip_1/final/Clip_bilingual.mp4",
		KindDanmakuMP4:    "/out/Clip_1/final/Clip_danmaku.mp4",
		KindSummary:       "/out/Clip_1/workflow_summary.md",
		Kind("unknown"):   "",
	}
	for kind, want := range tests {
		if got := p.Path(kind); got != filepath.FromSlash(want) {
			t.Errorf("Path(%s) = %s, want %s", kind, got, want)
		}
	}

	if err := p.SetVideoFile("/out/Clip_1/original_video.webm"); err != nil {
		t.Fatal(err)
	}
	if got := p.Path(KindOriginal); got != filepath.FromSlash("/out/Clip_1/original_video.webm") {
		t.Errorf("original = %s", got)
	}
}

func TestLock(t *testing.T) {
	p, err := Create(t.TempDir(), "Clip", "", created)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer p.Unlock()

	other, err := Open(p.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Lock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestWriteSummary(t *testing.T) {
	p, err := Create(t.TempDir(), "Clip", "https://youtu.be/x", created)
	if err != nil {
		t.Fatal(err)
	}
	p.Manifest.Uploader = "Comedy Central"
	p.Manifest.DurationS = 125
	out := p.Path(KindBilingualMP4)
	if err := os.WriteFile(out, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.MarkStep("render", out); err != nil {
		t.Fatal(err)
	}

	path, err := p.WriteSummary()
	if err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	summary := string(data)
	for _, want := range []string{
		"# Clip",
		"- Uploader: Comedy Central",
		"- Duration: 2m5s",
		"- [x] render",
		"`final/Clip_bilingual.mp4` 2.0 kB",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
