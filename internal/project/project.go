// Package project manages the timestamped working directory of a single
// video: its layout, its manifest and its lock.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	ManifestFile = "project.json"
	SummaryFile  = "workflow_summary.md"
	lockFile     = ".bilisub.lock"

	SubtitlesDir = "subtitles"
	FinalDir     = "final"
	TempDir      = "temp"

	timestampLayout = "20060102_150405"
)

var (
	ErrProjectExists = errors.New("project directory already exists")
	ErrLocked        = errors.New("project is locked by another run")
)

// Kind names a file with a fixed location inside the project.
type Kind string

const (
	KindOriginal      Kind = "original"
	KindAudio         Kind = "audio"
	KindEnglishSRT    Kind = "english_srt"
	KindChineseSRT    Kind = "chinese_srt"
	KindBilingualSRT  Kind = "bilingual_srt"
	KindBilingualASS  Kind = "bilingual_ass"
	KindChineseASS    Kind = "chinese_ass"
	KindDanmakuJSON   Kind = "danmaku_json"
	KindDanmakuASS    Kind = "danmaku_ass"
	KindDanmakuXML    Kind = "danmaku_xml"
	KindJianyingDraft Kind = "jianying_draft"
	KindBilingualMP4  Kind = "bilingual_mp4"
	KindChineseMP4    Kind = "chinese_mp4"
	KindDanmakuMP4    Kind = "danmaku_mp4"
	KindSummary       Kind = "summary"
	KindManifest      Kind = "manifest"
)

// Step records a finished pipeline step and the files it produced, relative
// to the project directory.
type Step struct {
	Name        string    `json:"name"`
	CompletedAt time.Time `json:"completed_at"`
	Outputs     []string  `json:"outputs,omitempty"`
}

// Manifest is persisted as project.json.
type Manifest struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	SafeTitle  string    `json:"safe_title"`
	Source     string    `json:"source"`
	Uploader   string    `json:"uploader,omitempty"`
	WebpageURL string    `json:"webpage_url,omitempty"`
	DurationS  float64   `json:"duration_seconds,omitempty"`
	VideoFile  string    `json:"video_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Steps      []Step    `json:"steps"`
}

// Project is an open project directory.
type Project struct {
	Dir      string
	Manifest Manifest

	lock *flock.Flock
}

// Create makes <root>/<safe title>_<YYYYMMDD_HHMMSS> with its subtitles,
// final and temp directories and writes a fresh manifest.
func Create(root, title, source string, now time.Time) (*Project, error) {
	safe := SafeTitle(title)
	name := fmt.Sprintf("%s_%s", safe, now.Format(timestampLayout))

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output root: %w", err)
	}
	dir, err := filepath.Abs(filepath.Join(root, name))
	if err != nil {
		return nil, err
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrProjectExists, dir)
		}
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	for _, sub := range []string{SubtitlesDir, FinalDir, TempDir} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	p := &Project{
		Dir: dir,
		Manifest: Manifest{
			ID:        uuid.NewString(),
			Name:      name,
			Title:     title,
			SafeTitle: safe,
			Source:    source,
			CreatedAt: now,
			UpdatedAt: now,
			Steps:     []Step{},
		},
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// Open loads an existing project for resume.
func Open(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(abs, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read project manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse project manifest: %w", err)
	}
	if m.SafeTitle == "" {
		m.SafeTitle = SafeTitle(m.Title)
	}
	return &Project{Dir: abs, Manifest: m}, nil
}

// Lock takes an exclusive, non-blocking lock on the directory.
func (p *Project) Lock() error {
	if p.lock == nil {
		p.lock = flock.New(filepath.Join(p.Dir, lockFile))
	}
	ok, err := p.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire project lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, p.Dir)
	}
	return nil
}

func (p *Project) Unlock() error {
	if p.lock == nil {
		return nil
	}
	return p.lock.Unlock()
}

// Path returns the canonical location of kind.
func (p *Project) Path(kind Kind) string {
	safe := p.Manifest.SafeTitle
	switch kind {
	case KindOriginal:
		if p.Manifest.VideoFile != "" {
			return filepath.Join(p.Dir, p.Manifest.VideoFile)
		}
		return filepath.Join(p.Dir, "original_video.mp4")
	case KindAudio:
		return filepath.Join(p.Dir, TempDir, "audio.mp3")
	case KindEnglishSRT:
		return filepath.Join(p.Dir, SubtitlesDir, "english.srt")
	case KindChineseSRT:
		return filepath.Join(p.Dir, SubtitlesDir, "chinese.srt")
	case KindBilingualSRT:
		return filepath.Join(p.Dir, SubtitlesDir, "bilingual.srt")
	case KindBilingualASS:
		return filepath.Join(p.Dir, SubtitlesDir, "bilingual.ass")
	case KindChineseASS:
		return filepath.Join(p.Dir, SubtitlesDir, "chinese_only.ass")
	case KindDanmakuJSON:
		return filepath.Join(p.Dir, SubtitlesDir, "danmaku.json")
	case KindDanmakuASS:
		return filepath.Join(p.Dir, SubtitlesDir, "danmaku.ass")
	case KindDanmakuXML:
		return filepath.Join(p.Dir, SubtitlesDir, "danmaku.xml")
	case KindJianyingDraft:
		return filepath.Join(p.Dir, FinalDir, "jianying", "draft_content.json")
	case KindBilingualMP4:
		return filepath.Join(p.Dir, FinalDir, safe+"_bilingual.mp4")
	case KindChineseMP4:
		return filepath.Join(p.Dir, FinalDir, safe+"_chinese.mp4")
	case KindDanmakuMP4:
		return filepath.Join(p.Dir, FinalDir, safe+"_danmaku.mp4")
	case KindSummary:
		return filepath.Join(p.Dir, SummaryFile)
	case KindManifest:
		return filepath.Join(p.Dir, ManifestFile)
	default:
		return ""
	}
}

// SetVideoFile records the actual source video, which may not be mp4.
func (p *Project) SetVideoFile(path string) error {
	rel, err := filepath.Rel(p.Dir, path)
	if err != nil {
		return fmt.Errorf("video is outside the project: %w", err)
	}
	p.Manifest.VideoFile = filepath.ToSlash(rel)
	return nil
}

// MarkStep records name as finished with the given outputs and saves the
// manifest. A previous record of the same step is replaced.
func (p *Project) MarkStep(name string, outputs ...string) error {
	rel := make([]string, 0, len(outputs))
	for _, out := range outputs {
		r, err := filepath.Rel(p.Dir, out)
		if err != nil {
			r = out
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	step := Step{Name: name, CompletedAt: time.Now(), Outputs: rel}

	idx := slices.IndexFunc(p.Manifest.Steps, func(s Step) bool { return s.Name == name })
	if idx >= 0 {
		p.Manifest.Steps[idx] = step
	} else {
		p.Manifest.Steps = append(p.Manifest.Steps, step)
	}
	return p.Save()
}

// StepDone reports whether name was recorded and all of its outputs are
// still on disk.
func (p *Project) StepDone(name string) bool {
	idx := slices.IndexFunc(p.Manifest.Steps, func(s Step) bool { return s.Name == name })
	if idx < 0 {
		return false
	}
	for _, out := range p.Manifest.Steps[idx].Outputs {
		if _, err := os.Stat(filepath.Join(p.Dir, filepath.FromSlash(out))); err != nil {
			return false
		}
	}
	return true
}

// Save writes the manifest atomically.
func (p *Project) Save() error {
	p.Manifest.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(p.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(p.Dir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
