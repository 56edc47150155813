package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/danmaku"
	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/subtitle"
	"github.com/mgpai22/bilisub/internal/transcribe"
	"github.com/mgpai22/bilisub/internal/translate"
	"github.com/mgpai22/bilisub/internal/video"
)

func (r *Runner) fetch(ctx context.Context, p *project.Project, _ *Result) ([]string, error) {
	v, err := r.Downloader.Download(ctx, p.Manifest.Source, p.Dir)
	if err != nil {
		return nil, err
	}
	if err := p.SetVideoFile(v.Path); err != nil {
		return nil, err
	}
	if v.Uploader != "" {
		p.Manifest.Uploader = v.Uploader
	}
	if v.WebpageURL != "" {
		p.Manifest.WebpageURL = v.WebpageURL
	}
	if v.Duration > 0 {
		p.Manifest.DurationS = v.Duration.Seconds()
	} else if info, err := r.Media.GetInfo(ctx, v.Path); err == nil {
		p.Manifest.DurationS = info.Duration.Seconds()
	}
	return []string{v.Path}, nil
}

func (r *Runner) transcribe(ctx context.Context, p *project.Project, _ *Result) ([]string, error) {
	logger := logging.OrNop(r.Logger)
	videoPath := p.Path(project.KindOriginal)
	audioPath := p.Path(project.KindAudio)

	err := r.Media.ExtractAudio(ctx, videoPath, audioPath, video.ExtractAudioOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
		Filter:     r.Config.Transcribe.AudioFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract audio: %w", err)
	}

	result, err := r.transcribeAudio(ctx, p, audioPath)
	if err != nil {
		return nil, err
	}

	sub, err := transcribe.ToSubtitle(result)
	if err != nil {
		return nil, err
	}
	out := p.Path(project.KindEnglishSRT)
	if err := (&subtitle.SRTWriter{}).Write(sub, out); err != nil {
		return nil, fmt.Errorf("failed to write english subtitles: %w", err)
	}
	logger.Infow("Wrote english subtitles", "path", out, "entries", len(sub.Entries))
	return []string{out}, nil
}

// transcribeAudio chunks long audio when the transcriber supports it.
func (r *Runner) transcribeAudio(ctx context.Context, p *project.Project, audioPath string) (*transcribe.Result, error) {
	cfg := r.Config.Transcribe
	chunkDur := time.Duration(cfg.ChunkMinutes) * time.Minute

	ct, ok := r.Transcriber.(transcribe.ConcurrentTranscriber)
	if !ok || chunkDur <= 0 || p.Manifest.DurationS <= chunkDur.Seconds() {
		return r.Transcriber.Transcribe(ctx, audioPath)
	}

	chunker := r.Chunker
	if chunker == nil {
		chunker = audio.ChunkAudio
	}
	chunkDir := filepath.Join(p.Dir, project.TempDir, "chunks")
	chunks, err := chunker(ctx, audioPath, chunkDur, chunkDir, cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk audio: %w", err)
	}
	defer func() { _ = audio.CleanupChunks(chunks) }()

	logging.OrNop(r.Logger).Infow("Transcribing in chunks", "chunks", len(chunks), "concurrency", cfg.Concurrency)
	return ct.TranscribeWithChunks(ctx, chunks, cfg.Concurrency)
}

func (r *Runner) translate(ctx context.Context, p *project.Project, _ *Result) ([]string, error) {
	cfg := r.Config.Translate
	english, err := subtitle.ReadSRTFile(p.Path(project.KindEnglishSRT))
	if err != nil {
		return nil, err
	}

	tr, err := r.Translator(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	results, err := translate.Run(ctx, tr, translate.ItemsFromSubtitle(english), cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	chinese, err := translate.Apply(english, results, "zh")
	if err != nil {
		return nil, err
	}

	out := p.Path(project.KindChineseSRT)
	if err := (&subtitle.SRTWriter{}).Write(chinese, out); err != nil {
		return nil, fmt.Errorf("failed to write chinese subtitles: %w", err)
	}
	if cached, ok := tr.(*translate.CachedTranslator); ok {
		stats := cached.Stats()
		logging.OrNop(r.Logger).Infow("Translation cache", "hits", stats.Hits, "misses", stats.Misses)
	}
	return []string{out}, nil
}

func (r *Runner) compose(_ context.Context, p *project.Project, _ *Result) ([]string, error) {
	english, err := subtitle.ReadSRTFile(p.Path(project.KindEnglishSRT))
	if err != nil {
		return nil, err
	}
	chinese, err := subtitle.ReadSRTFile(p.Path(project.KindChineseSRT))
	if err != nil {
		return nil, err
	}

	merged, err := subtitle.MergeBilingual(english, chinese)
	if err != nil {
		return nil, err
	}
	mergedPath := p.Path(project.KindBilingualSRT)
	if err := (&subtitle.SRTWriter{}).Write(merged, mergedPath); err != nil {
		return nil, fmt.Errorf("failed to write bilingual subtitles: %w", err)
	}

	outputs := []string{mergedPath}
	for _, v := range []struct {
		mode subtitle.Mode
		kind project.Kind
	}{
		{subtitle.ModeBilingual, project.KindBilingualASS},
		{subtitle.ModeChinese, project.KindChineseASS},
	} {
		doc, err := subtitle.Compose(english, chinese, r.Config.Layout, subtitle.ComposeOptions{
			Mode:   v.mode,
			Title:  p.Manifest.Title,
			Logger: r.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to compose %s subtitles: %w", v.mode, err)
		}
		out := p.Path(v.kind)
		if err := doc.Write(out); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (r *Runner) danmaku(ctx context.Context, p *project.Project, _ *Result) ([]string, error) {
	cfg := r.Config.Danmaku
	info, err := r.Media.GetInfo(ctx, p.Path(project.KindOriginal))
	if err != nil {
		return nil, err
	}

	var transcript *subtitle.Subtitle
	if sub, err := subtitle.ReadSRTFile(p.Path(project.KindEnglishSRT)); err == nil {
		transcript = sub
	}

	opts := danmaku.DefaultOptions()
	opts.Density = danmaku.Density(cfg.Density)
	opts.TrumpFocus = cfg.TrumpFocus
	opts.IncludeEmoji = cfg.IncludeEmoji
	opts.MinGap = cfg.MinGap()
	opts.Seed = r.DanmakuSeed
	opts.Logger = r.Logger
	gen, err := danmaku.NewGenerator(opts)
	if err != nil {
		return nil, err
	}
	items, err := gen.Generate(info.Duration, transcript)
	if err != nil {
		return nil, err
	}
	records, err := danmaku.ToRecords(items)
	if err != nil {
		return nil, err
	}

	jsonPath := p.Path(project.KindDanmakuJSON)
	if err := danmaku.WriteJSON(jsonPath, records); err != nil {
		return nil, err
	}
	doc, err := danmaku.ToASS(records, danmaku.ASSOptions{
		Width:    info.Width,
		Height:   info.Height,
		Display:  cfg.Display(),
		Font:     cfg.Font,
		FontSize: cfg.FontSize,
	})
	if err != nil {
		return nil, err
	}
	assPath := p.Path(project.KindDanmakuASS)
	if err := doc.Write(assPath); err != nil {
		return nil, err
	}
	xmlPath := p.Path(project.KindDanmakuXML)
	if err := danmaku.WriteBilibiliXML(xmlPath, records); err != nil {
		return nil, err
	}
	outputs := []string{jsonPath, assPath, xmlPath}

	if cfg.JianyingDraft {
		draftPath := p.Path(project.KindJianyingDraft)
		err := danmaku.WriteJianyingDraft(draftPath, records, danmaku.JianyingOptions{
			VideoPath: p.Path(project.KindOriginal),
			Duration:  info.Duration,
			Width:     info.Width,
			Height:    info.Height,
			FrameRate: info.FrameRate,
			Display:   cfg.Display(),
			Name:      p.Manifest.Title,
			Now:       r.now(),
		})
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, draftPath)
	}
	return outputs, nil
}

func (r *Runner) summary(_ context.Context, p *project.Project, _ *Result) ([]string, error) {
	path, err := p.WriteSummary()
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (r *Runner) publish(ctx context.Context, p *project.Project, result *Result) ([]string, error) {
	keys, err := r.Publisher.Upload(ctx, p)
	if err != nil {
		return nil, err
	}
	result.Published = keys
	return nil, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
