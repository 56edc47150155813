// Package pipeline runs the whole bilingual video workflow against a project
// directory: fetch, transcribe, translate, compose, danmaku, render, summary
// and publish.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/config"
	"github.com/mgpai22/bilisub/internal/download"
	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/transcribe"
	"github.com/mgpai22/bilisub/internal/translate"
	"github.com/mgpai22/bilisub/internal/video"
)

// Step names, as recorded in project.json.
const (
	StepFetch      = "fetch"
	StepTranscribe = "transcribe"
	StepTranslate  = "translate"
	StepCompose    = "compose"
	StepDanmaku    = "danmaku"
	StepRender     = "render"
	StepSummary    = "summary"
	StepPublish    = "publish"
)

// Downloader fetches the source video.
type Downloader interface {
	Metadata(ctx context.Context, source string) (*download.Video, error)
	Download(ctx context.Context, source, dir string) (*download.Video, error)
}

// Publisher uploads a finished project.
type Publisher interface {
	Upload(ctx context.Context, p *project.Project) ([]string, error)
}

// TranslatorFactory builds the translator for a project. The manual provider
// needs the project directory to exchange files with the user.
type TranslatorFactory func(p *project.Project) (translate.Translator, error)

// Chunker splits long audio for chunked transcription.
type Chunker func(ctx context.Context, audioPath string, chunkDuration time.Duration, outputDir string, concurrency int) ([]audio.ChunkInfo, error)

// Runner wires the steps together. Every dependency is an interface so tests
// can swap in fakes.
type Runner struct {
	Config      *config.Config
	Downloader  Downloader
	Media       video.Processor
	Transcriber transcribe.Transcriber
	Translator  TranslatorFactory
	Publisher   Publisher
	Chunker     Chunker
	Logger      *logging.Logger

	// Force reruns steps that are already recorded as done.
	Force bool
	// DanmakuSeed makes danmaku generation reproducible when non-zero.
	DanmakuSeed uint64
	// RenderProgress, when set, receives encode progress per variant.
	RenderProgress func(variant string, pos, total time.Duration)

	Now func() time.Time
}

// Result summarises a finished run.
type Result struct {
	Project   *project.Project
	Videos    []string
	Published []string
	Skipped   []string
}

// Run creates a project for source and runs every step.
func (r *Runner) Run(ctx context.Context, source string) (*Result, error) {
	logger := logging.OrNop(r.Logger)

	meta, err := r.Downloader.Metadata(ctx, source)
	if err != nil {
		return nil, err
	}
	p, err := project.Create(r.Config.Paths.OutputRoot, meta.Title, source, r.now())
	if err != nil {
		return nil, err
	}
	p.Manifest.Uploader = meta.Uploader
	p.Manifest.WebpageURL = meta.WebpageURL
	p.Manifest.DurationS = meta.Duration.Seconds()
	if err := p.Save(); err != nil {
		return nil, err
	}
	logger.Infow("Created project", "dir", p.Dir, "title", meta.Title)

	return r.execute(ctx, p)
}

// Resume reopens an existing project directory and runs the steps that are
// not done yet.
func (r *Runner) Resume(ctx context.Context, dir string) (*Result, error) {
	p, err := project.Open(dir)
	if err != nil {
		return nil, err
	}
	logging.OrNop(r.Logger).Infow("Resuming project", "dir", p.Dir)
	return r.execute(ctx, p)
}

func (r *Runner) execute(ctx context.Context, p *project.Project) (*Result, error) {
	if err := p.Lock(); err != nil {
		return nil, err
	}
	defer func() { _ = p.Unlock() }()

	result := &Result{Project: p}
	logger := logging.OrNop(r.Logger).With("project", p.Manifest.Name)
	start := time.Now()

	steps := []struct {
		name    string
		enabled bool
		always  bool
		fn      func(context.Context, *project.Project, *Result) ([]string, error)
	}{
		{StepFetch, true, false, r.fetch},
		{StepTranscribe, true, false, r.transcribe},
		{StepTranslate, true, false, r.translate},
		{StepCompose, true, false, r.compose},
		{StepDanmaku, r.Config.Danmaku.Enabled, false, r.danmaku},
		{StepRender, true, false, r.render},
		{StepSummary, true, true, r.summary},
		{StepPublish, r.Publisher != nil, false, r.publish},
	}

	// Once a step runs, every later step depends on fresh outputs.
	rerun := r.Force
	for _, s := range steps {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !s.always && !rerun && p.StepDone(s.name) {
			logger.Infow("Skipping completed step", "step", s.name)
			result.Skipped = append(result.Skipped, s.name)
			continue
		}

		stepStart := time.Now()
		logger.Infow("Starting step", "step", s.name)
		outputs, err := s.fn(ctx, p, result)
		if err != nil {
			return result, fmt.Errorf("%s step failed: %w", s.name, err)
		}
		if err := p.MarkStep(s.name, outputs...); err != nil {
			return result, err
		}
		if !s.always {
			rerun = true
		}
		logger.Infow("Finished step",
			"step", s.name,
			"outputs", len(outputs),
			"elapsed", time.Since(stepStart).Round(time.Millisecond),
		)
	}

	if len(result.Videos) == 0 {
		result.Videos = recordedOutputs(p, StepRender)
	}

	logger.Infow("Pipeline complete",
		"dir", p.Dir,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

func recordedOutputs(p *project.Project, step string) []string {
	for _, s := range p.Manifest.Steps {
		if s.Name != step {
			continue
		}
		out := make([]string, len(s.Outputs))
		for i, rel := range s.Outputs {
			out[i] = filepath.Join(p.Dir, filepath.FromSlash(rel))
		}
		return out
	}
	return nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
