package cli

import (
	"strings"
	"testing"
)

func TestIsValidOpenAITranscriptLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		// Valid cases
		{"", true},
		{"native", true},
		{"Native", true},
		{"NATIVE", true},
		{" native ", true},
		{"english", true},
		{"English", true},
		{"ENGLISH", true},
		{" english ", true},
		{"en", true},
		{"EN", true},
		{" en ", true},

		// Invalid cases - non-English languages
		{"spanish", false},
		{"Spanish", false},
		{"french", false},
		{"german", false},
		{"japanese", false},
		{"chinese", false},
		{"korean", false},
		{"es", false},
		{"fr", false},
		{"de", false},
		{"ja", false},
		{"zh", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := isValidOpenAITranscriptLanguage(tt.lang)
			if got != tt.want {
				t.Errorf(
					"isValidOpenAITranscriptLanguage(%q) = %v, want %v",
					tt.lang,
					got,
					tt.want,
				)
			}
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("BILISUB_TEST_KEY", "from-env")

	tests := []struct {
		name    string
		flag    string
		env     string
		want    string
		wantErr bool
	}{
		{"flag wins", "from-flag", "BILISUB_TEST_KEY", "from-flag", false},
		{"env fallback", "", "BILISUB_TEST_KEY", "from-env", false},
		{"no env needed", "", "", "", false},
		{"missing", "", "BILISUB_TEST_MISSING", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAPIKey(tt.flag, tt.env)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultTranslationPath(t *testing.T) {
	tests := []struct {
		path    string
		lang    string
		overlay bool
		want    string
	}{
		{"english.srt", "Chinese", false, "english.chinese.srt"},
		{"dir/english.srt", "Simplified Chinese", false, "dir/english.simplified_chinese.srt"},
		{"talk.ass", "zh", true, "talk.zh.overlay.ass"},
	}

	for _, tt := range tests {
		got := defaultTranslationPath(tt.path, tt.lang, tt.overlay)
		if got != tt.want {
			t.Errorf("defaultTranslationPath(%q, %q, %v) = %q, want %q",
				tt.path, tt.lang, tt.overlay, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Tool", "Status"},
		[][]string{{"ffmpeg", "ok"}, {"yt-dlp"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"TOOL", "ffmpeg", "yt-dlp", "ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty output without headers")
	}
}
