package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations used by the pipeline.
type Paths struct {
	OutputRoot   string `toml:"output_root"`
	CacheDB      string `toml:"cache_db"`
	WatermarkPNG string `toml:"watermark_png"`
}

// Style is one ASS style line.
type Style struct {
	Font      string `toml:"font"`
	Size      int    `toml:"size"`
	Bold      bool   `toml:"bold"`
	Outline   int    `toml:"outline"`
	Alignment int    `toml:"alignment"`
	MarginL   int    `toml:"margin_l"`
	MarginR   int    `toml:"margin_r"`
	MarginV   int    `toml:"margin_v"`
}

// Layout holds the fixed subtitle layout. Chinese.MarginV applies to the
// bilingual render; ChineseOnlyMarginV replaces it when Chinese is the only
// track on screen.
type Layout struct {
	PlayResX           int    `toml:"play_res_x"`
	PlayResY           int    `toml:"play_res_y"`
	PrimaryColour      string `toml:"primary_colour"`
	OutlineColour      string `toml:"outline_colour"`
	BackColour         string `toml:"back_colour"`
	Chinese            Style  `toml:"chinese"`
	ChineseOnlyMarginV int    `toml:"chinese_only_margin_v"`
	English            Style  `toml:"english"`
	WatermarkText      string `toml:"watermark_text"`
	Watermark          Style  `toml:"watermark"`
}

// Download configures yt-dlp.
type Download struct {
	Binary         string `toml:"binary"`
	Format         string `toml:"format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CookiesFile    string `toml:"cookies_file"`
}

// Timeout returns the download timeout as a duration.
func (d Download) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Transcribe configures speech-to-text.
type Transcribe struct {
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	Language      string `toml:"language"`
	WhisperBinary string `toml:"whisper_binary"`
	ChunkMinutes  int    `toml:"chunk_minutes"`
	Concurrency   int    `toml:"concurrency"`
	// AudioFilter is an ffmpeg -af chain applied to the extracted audio
	// before transcription. Empty disables it.
	AudioFilter string `toml:"audio_filter"`
}

// Translate configures English to Chinese translation.
type Translate struct {
	Provider             string            `toml:"provider"`
	Model                string            `toml:"model"`
	SourceLanguage       string            `toml:"source_language"`
	TargetLanguage       string            `toml:"target_language"`
	BatchSize            int               `toml:"batch_size"`
	Concurrency          int               `toml:"concurrency"`
	ManualTimeoutSeconds int               `toml:"manual_timeout_seconds"`
	PollIntervalSeconds  int               `toml:"poll_interval_seconds"`
	Cache                bool              `toml:"cache"`
	Glossary             map[string]string `toml:"glossary"`
}

// Danmaku configures generated comment overlays.
type Danmaku struct {
	Enabled        bool    `toml:"enabled"`
	Density        string  `toml:"density"`
	TrumpFocus     bool    `toml:"trump_focus"`
	IncludeEmoji   bool    `toml:"include_emoji"`
	MinGapSeconds  float64 `toml:"min_gap_seconds"`
	DisplaySeconds float64 `toml:"display_seconds"`
	Font           string  `toml:"font"`
	FontSize       int     `toml:"font_size"`
	// JianyingDraft also writes a JianYing draft_content.json that lays the
	// comments over the original video as editable text segments.
	JianyingDraft bool `toml:"jianying_draft"`
}

// MinGap returns the minimum spacing between comments.
func (d Danmaku) MinGap() time.Duration {
	return time.Duration(d.MinGapSeconds * float64(time.Second))
}

// Display returns how long each comment stays on screen.
func (d Danmaku) Display() time.Duration {
	return time.Duration(d.DisplaySeconds * float64(time.Second))
}

// Render configures the final FFmpeg encode.
type Render struct {
	Preset       string   `toml:"preset"`
	CRF          int      `toml:"crf"`
	AudioBitrate string   `toml:"audio_bitrate"`
	Parallel     int      `toml:"parallel"`
	Variants     []string `toml:"variants"`
}

// Publish configures the optional S3-compatible upload.
type Publish struct {
	Endpoint     string `toml:"endpoint"`
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Region       string `toml:"region"`
	AccessKeyEnv string `toml:"access_key_env"`
	SecretKeyEnv string `toml:"secret_key_env"`
	UseSSL       bool   `toml:"use_ssl"`
}

// Enabled reports whether an endpoint is configured.
func (p Publish) Enabled() bool {
	return strings.TrimSpace(p.Endpoint) != ""
}

// Config encapsulates all configuration values for bilisub.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Layout     Layout     `toml:"layout"`
	Download   Download   `toml:"download"`
	Transcribe Transcribe `toml:"transcribe"`
	Translate  Translate  `toml:"translate"`
	Danmaku    Danmaku    `toml:"danmaku"`
	Render     Render     `toml:"render"`
	Publish    Publish    `toml:"publish"`
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, normalizes and validates a configuration file. A
// missing file is not an error; defaults are returned instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bilisub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath applies the same ~ and absolute path rules used for config paths.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
