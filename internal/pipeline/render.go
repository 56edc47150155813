package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/video"
)

// Render variants.
const (
	VariantBilingual = "bilingual"
	VariantChinese   = "chinese"
	VariantDanmaku   = "danmaku"
)

type variant struct {
	name     string
	subs     project.Kind
	overlay  project.Kind
	output   project.Kind
	needsDmk bool
}

var variants = map[string]variant{
	VariantBilingual: {name: VariantBilingual, subs: project.KindBilingualASS, output: project.KindBilingualMP4},
	VariantChinese:   {name: VariantChinese, subs: project.KindChineseASS, output: project.KindChineseMP4},
	VariantDanmaku: {
		name:     VariantDanmaku,
		subs:     project.KindBilingualASS,
		overlay:  project.KindDanmakuASS,
		output:   project.KindDanmakuMP4,
		needsDmk: true,
	},
}

// renderPlan resolves the configured variant names. The danmaku variant is
// dropped when danmaku generation is off.
func (r *Runner) renderPlan() ([]variant, error) {
	var plan []variant
	for _, name := range r.Config.Render.Variants {
		v, ok := variants[name]
		if !ok {
			return nil, fmt.Errorf("unknown render variant %q", name)
		}
		if v.needsDmk && !r.Config.Danmaku.Enabled {
			logging.OrNop(r.Logger).Warnw("Skipping danmaku render, danmaku is disabled")
			continue
		}
		plan = append(plan, v)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("no render variants configured")
	}
	return plan, nil
}

// render burns every variant, at most Render.Parallel at a time.
func (r *Runner) render(ctx context.Context, p *project.Project, result *Result) ([]string, error) {
	plan, err := r.renderPlan()
	if err != nil {
		return nil, err
	}
	logger := logging.OrNop(r.Logger)
	cfg := r.Config.Render

	watermark := r.Config.Paths.WatermarkPNG
	if watermark != "" && !fileExists(watermark) {
		logger.Warnw("Watermark image not found, rendering without it", "path", watermark)
		watermark = ""
	}
	total := time.Duration(p.Manifest.DurationS * float64(time.Second))

	outputs := make([]string, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Parallel))
	for i, v := range plan {
		g.Go(func() error {
			opts := video.BurnOptions{
				Input:        p.Path(project.KindOriginal),
				Output:       p.Path(v.output),
				Subtitles:    p.Path(v.subs),
				Watermark:    watermark,
				Preset:       cfg.Preset,
				CRF:          cfg.CRF,
				AudioBitrate: cfg.AudioBitrate,
			}
			if v.overlay != "" {
				opts.Danmaku = p.Path(v.overlay)
			}
			if r.RenderProgress != nil {
				opts.Progress = func(pos time.Duration) { r.RenderProgress(v.name, pos, total) }
			}

			start := time.Now()
			if err := r.Media.Burn(gctx, opts); err != nil {
				return fmt.Errorf("failed to render %s: %w", v.name, err)
			}
			logger.Infow("Rendered variant",
				"variant", v.name,
				"output", opts.Output,
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			outputs[i] = opts.Output
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Videos = outputs
	return outputs, nil
}
