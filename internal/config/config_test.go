package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/bilisub/internal/config"
)

func TestLoadDefaultConfigWhenFileMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if want := filepath.Join(tempHome, ".config", "bilisub", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.Layout.Chinese.Size != 22 || cfg.Layout.Chinese.MarginV != 60 {
		t.Fatalf("unexpected chinese style: %+v", cfg.Layout.Chinese)
	}
	if cfg.Layout.ChineseOnlyMarginV != 40 {
		t.Fatalf("unexpected chinese-only margin: %d", cfg.Layout.ChineseOnlyMarginV)
	}
	if cfg.Layout.English.Font != "Arial" || cfg.Layout.English.Size != 18 || cfg.Layout.English.MarginV != 20 {
		t.Fatalf("unexpected english style: %+v", cfg.Layout.English)
	}
	if cfg.Layout.Watermark.Alignment != 9 {
		t.Fatalf("watermark alignment = %d, want 9", cfg.Layout.Watermark.Alignment)
	}
	if !filepath.IsAbs(cfg.Paths.OutputRoot) {
		t.Fatalf("expected absolute output root, got %q", cfg.Paths.OutputRoot)
	}
	if cfg.Paths.CacheDB != filepath.Join(tempHome, ".cache", "bilisub", "translations.db") {
		t.Fatalf("unexpected cache db: %q", cfg.Paths.CacheDB)
	}
	if cfg.Download.Timeout().Seconds() != 300 {
		t.Fatalf("unexpected download timeout: %v", cfg.Download.Timeout())
	}
	if cfg.Publish.Enabled() {
		t.Fatal("expected publish disabled by default")
	}
	if !cfg.Danmaku.Enabled || strings.Join(cfg.Render.Variants, ",") != "bilingual,chinese,danmaku" {
		t.Fatalf("danmaku render not on by default: enabled=%v variants=%v", cfg.Danmaku.Enabled, cfg.Render.Variants)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bilisub.toml")
	content := `
[translate]
provider = "openai"
model = "gpt-5-mini"

[danmaku]
density = "HIGH"

[render]
crf = 20
variants = ["bilingual", " danmaku ", "bilingual"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Translate.Provider != "openai" || cfg.Translate.Model != "gpt-5-mini" {
		t.Fatalf("translate not overridden: %+v", cfg.Translate)
	}
	if cfg.Translate.BatchSize != 50 {
		t.Fatalf("expected default batch size to survive, got %d", cfg.Translate.BatchSize)
	}
	if cfg.Danmaku.Density != "high" {
		t.Fatalf("density not normalized: %q", cfg.Danmaku.Density)
	}
	if cfg.Render.CRF != 20 {
		t.Fatalf("crf = %d, want 20", cfg.Render.CRF)
	}
	if got := strings.Join(cfg.Render.Variants, ","); got != "bilingual,danmaku" {
		t.Fatalf("variants = %q", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad provider", "[translate]\nprovider = \"deepl\"\n", "translate.provider"},
		{"bad density", "[danmaku]\ndensity = \"extreme\"\n", "danmaku.density"},
		{"bad crf", "[render]\ncrf = 99\n", "render.crf"},
		{"bad variant", "[render]\nvariants = [\"vertical\"]\n", "render.variants"},
		{"publish without bucket", "[publish]\nendpoint = \"s3.local:9000\"\n", "publish.bucket"},
		{"bad alignment", "[layout.english]\nalignment = 12\n", "layout.english.alignment"},
		{"unknown key", "[render]\nspeed = 2\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	def := config.Default()
	if parsed.Layout.Chinese != def.Layout.Chinese {
		t.Errorf("sample chinese style %+v differs from default %+v", parsed.Layout.Chinese, def.Layout.Chinese)
	}
	if parsed.Layout.Watermark != def.Layout.Watermark {
		t.Errorf("sample watermark style %+v differs from default %+v", parsed.Layout.Watermark, def.Layout.Watermark)
	}
	if parsed.Download.Format != def.Download.Format {
		t.Errorf("sample download format differs from default")
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/videos")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "videos") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
