package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/bilisub/internal/ffmpeg"
)

// The watermark sits 20px from the top right corner.
const (
	WatermarkX = "main_w-overlay_w-20"
	WatermarkY = "20"
)

// BurnOptions describes one hardsub render.
type BurnOptions struct {
	Input     string
	Output    string
	Subtitles string
	// Danmaku is an optional second ASS layer drawn over the subtitles.
	Danmaku string
	// Watermark is an optional PNG overlaid at WatermarkX, WatermarkY.
	Watermark    string
	Preset       string
	CRF          int
	AudioBitrate string
	// Progress receives the encoded position while ffmpeg runs.
	Progress func(time.Duration)
}

func (o *BurnOptions) defaults() {
	if o.Preset == "" {
		o.Preset = "medium"
	}
	if o.CRF == 0 {
		o.CRF = 23
	}
	if o.AudioBitrate == "" {
		o.AudioBitrate = "192k"
	}
}

// burnStream builds the render graph: the subtitle and danmaku ass layers
// on the first video stream, then the watermark overlay. Audio is mapped
// as 0:a? so silent sources still render.
func burnStream(opts BurnOptions) *ffmpeg.Stream {
	input := ffmpeg.Input(opts.Input)
	video := input.Video()
	for _, layer := range []string{opts.Subtitles, opts.Danmaku} {
		if layer != "" {
			video = video.Filter("ass", nil, ffmpeg.KwArgs{"filename": layer})
		}
	}
	if opts.Watermark != "" {
		video = video.Overlay(ffmpeg.Input(opts.Watermark), "", ffmpeg.KwArgs{
			"x": WatermarkX,
			"y": WatermarkY,
		})
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video, input.Get("a?")}, opts.Output, ffmpeg.KwArgs{
		"c:v":           "libx264",
		"preset":        opts.Preset,
		"crf":           opts.CRF,
		"pix_fmt":       "yuv420p",
		"c:a":           "aac",
		"audio_bitrate": opts.AudioBitrate,
		"movflags":      "+faststart",
	}).OverWriteOutput()
}

// BurnArgs returns the ffmpeg arguments for opts.
func BurnArgs(opts BurnOptions) ([]string, error) {
	opts.defaults()
	if opts.Input == "" || opts.Output == "" {
		return nil, fmt.Errorf("input and output are required")
	}
	if opts.Subtitles == "" && opts.Danmaku == "" && opts.Watermark == "" {
		return nil, fmt.Errorf("nothing to burn: no subtitles, danmaku or watermark")
	}
	return burnStream(opts).GetArgs(), nil
}

// Burn renders opts.Input with its subtitle layers and watermark into
// opts.Output, replacing any existing file.
func (p *DefaultProcessor) Burn(ctx context.Context, opts BurnOptions) error {
	for _, in := range []string{opts.Input, opts.Subtitles, opts.Danmaku, opts.Watermark} {
		if in == "" {
			continue
		}
		if _, err := os.Stat(in); err != nil {
			return fmt.Errorf("burn input missing: %w", err)
		}
	}

	args, err := BurnArgs(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	p.logger.Infow("Burning subtitles",
		"input", opts.Input,
		"output", opts.Output,
		"subtitles", opts.Subtitles,
		"danmaku", opts.Danmaku,
		"watermark", opts.Watermark,
	)
	started := time.Now()
	if err := ffmpegbin.Run(ctx, args, opts.Progress); err != nil {
		return fmt.Errorf("failed to burn %s: %w", filepath.Base(opts.Output), err)
	}
	p.logger.Infow("Burn complete",
		"output", opts.Output,
		"elapsed", time.Since(started).Round(time.Second).String(),
	)
	return nil
}
