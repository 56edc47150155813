package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/subtitle"
	"github.com/mgpai22/bilisub/internal/translate"
)

const testEnglishSRT = `1
00:00:01,000 --> 00:00:03,000
Hello there

2
00:00:04,000 --> 00:00:06,500
How are you
`

const testChineseSRT = `1
00:00:01,000 --> 00:00:03,000
你好

2
00:00:04,000 --> 00:00:06,500
你好吗
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestApplyResults(t *testing.T) {
	logger = logging.Nop()
	dir := t.TempDir()

	tests := []struct {
		name    string
		overlay bool
		want    []string
	}{
		{"replace", false, []string{"你好", "How are you"}},
		{"overlay", true, []string{"你好\nHello there", "How are you"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, dir, tt.name+".srt", testEnglishSRT)
			file, err := subtitle.Open(path)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}

			results := []translate.TranslationResult{
				{Index: 0, Text: "你好"},
				{Index: 7, Text: "ignored"},
			}
			if err := applyResults(file, results, tt.overlay); err != nil {
				t.Fatalf("applyResults() error: %v", err)
			}

			got := file.Subtitle().Texts()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestComposeCommand(t *testing.T) {
	dir := t.TempDir()
	en := writeTestFile(t, dir, "english.srt", testEnglishSRT)
	zh := writeTestFile(t, dir, "chinese.srt", testChineseSRT)
	out := filepath.Join(dir, "bilingual.ass")

	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.toml"),
		"compose", "--en", en, "--zh", zh, "-o", out,
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	content := string(data)
	for _, want := range []string{"[Script Info]", "Style: Chinese", "Style: English", "你好吗", "How are you"} {
		if !strings.Contains(content, want) {
			t.Errorf("ASS output missing %q", want)
		}
	}
}

func TestExtractPaths(t *testing.T) {
	root := t.TempDir()
	p, err := project.Create(root, "Late Night Clip", "https://example.com/v", time.Date(2025, 1, 20, 21, 5, 9, 0, time.UTC))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in, out, err := extractPaths(p.Dir, "mp3", "")
	if err != nil {
		t.Fatalf("extractPaths(project): %v", err)
	}
	if in != p.Path(project.KindOriginal) || out != p.Path(project.KindAudio) {
		t.Errorf("project paths = %s, %s", in, out)
	}
	if _, out, _ := extractPaths(p.Dir, "wav", ""); !strings.HasSuffix(out, filepath.Join("temp", "audio.wav")) {
		t.Errorf("wav output = %s", out)
	}

	in, out, err = extractPaths("talk.mp4", "mp3", "")
	if err != nil || in != "talk.mp4" || out != "talk.mp3" {
		t.Errorf("file paths = %s, %s, %v", in, out, err)
	}
	if _, _, err := extractPaths("talk.mp3", "mp3", ""); err == nil {
		t.Error("expected error when output equals input")
	}
}

func TestRunChecksTranslateKeyFirst(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	dir := t.TempDir()
	root := filepath.Join(dir, "out")

	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.toml"),
		"run", "https://youtu.be/x",
		"--output", root,
		"--transcribe-provider", "local",
		"--translate-provider", "anthropic",
	})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("output root should not be touched before the key check: %v", err)
	}
}

func TestManualNotice(t *testing.T) {
	dir := t.TempDir()
	prompt := filepath.Join(dir, "translation_prompt.txt")
	response := filepath.Join(dir, "chinese_translation.srt")

	if got := manualNotice(prompt, response); !strings.HasPrefix(got, "Waiting for translation.") || !strings.Contains(got, response) {
		t.Errorf("notice without response = %q", got)
	}
	writeTestFile(t, dir, "chinese_translation.srt", testChineseSRT)
	if got := manualNotice(prompt, response); !strings.HasPrefix(got, "Using existing translation") {
		t.Errorf("notice with response = %q", got)
	}
}

func TestComposeBilingualSRTRoundTrip(t *testing.T) {
	dir := t.TempDir()
	en := writeTestFile(t, dir, "english.srt", testEnglishSRT)
	zh := writeTestFile(t, dir, "chinese.srt", testChineseSRT)
	combined := filepath.Join(dir, "bilingual.srt")
	first := filepath.Join(dir, "first.ass")
	second := filepath.Join(dir, "second.ass")

	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.toml"),
		"compose", "--en", en, "--zh", zh, "--srt-out", combined, "-o", first,
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("compose with --srt-out: %v", err)
	}
	data, err := os.ReadFile(combined)
	if err != nil {
		t.Fatalf("read combined SRT: %v", err)
	}
	if !strings.Contains(string(data), "你好吗\nHow are you") {
		t.Errorf("combined SRT should put Chinese above English:\n%s", data)
	}

	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.toml"),
		"compose", "--en=", "--zh=", "--srt-out=", "--bilingual-srt", combined, "-o", second,
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("compose from --bilingual-srt: %v", err)
	}
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Errorf("ASS from combined SRT differs:\n%s\n---\n%s", a, b)
	}
}

func TestComposeInputsRejectsMixedSources(t *testing.T) {
	if _, _, err := composeInputs("bilingual", "en.srt", "", "both.srt"); err == nil {
		t.Error("expected error when --bilingual-srt is combined with --en")
	}
}
