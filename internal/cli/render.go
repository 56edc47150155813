package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/video"
)

var renderCmd = &cobra.Command{
	Use:   "render [video_file]",
	Short: "Burn ASS subtitles and a watermark into a video",
	Long: `Burn an ASS subtitle file, an optional danmaku ASS layer and an optional
watermark PNG into a new MP4 (libx264, AAC audio).

The watermark is placed 20px from the top right corner.

Examples:
  bilisub render original_video.mp4 --subs bilingual.ass -o bilingual.mp4
  bilisub render original_video.mp4 --subs bilingual.ass --danmaku danmaku.ass --watermark logo.png`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("subs", "", "ASS subtitle file to burn (required)")
	renderCmd.Flags().String("danmaku", "", "Danmaku ASS file drawn over the subtitles")
	renderCmd.Flags().String("watermark", "", "Watermark PNG; default from config")
	renderCmd.Flags().String("preset", "", "x264 preset; default from config")
	renderCmd.Flags().Int("crf", 0, "x264 CRF; default from config")

	_ = renderCmd.MarkFlagRequired("subs")
}

func runRender(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := cmd.Context()

	subs, _ := cmd.Flags().GetString("subs")
	danmakuPath, _ := cmd.Flags().GetString("danmaku")
	watermark, _ := cmd.Flags().GetString("watermark")
	preset, _ := cmd.Flags().GetString("preset")
	crf, _ := cmd.Flags().GetInt("crf")
	outputPath, _ := cmd.Flags().GetString("output")

	if watermark == "" {
		watermark = cfg.Paths.WatermarkPNG
	}
	if preset == "" {
		preset = cfg.Render.Preset
	}
	if crf <= 0 {
		crf = cfg.Render.CRF
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "_subtitled.mp4"
	}

	processor := video.NewProcessor(logger)
	info, err := processor.GetInfo(ctx, videoPath)
	if err != nil {
		return err
	}

	progress, finish := newProgress("Rendering", info.Duration)
	start := time.Now()
	err = processor.Burn(ctx, video.BurnOptions{
		Input:        videoPath,
		Output:       outputPath,
		Subtitles:    subs,
		Danmaku:      danmakuPath,
		Watermark:    watermark,
		Preset:       preset,
		CRF:          crf,
		AudioBitrate: cfg.Render.AudioBitrate,
		Progress:     progress,
	})
	finish()
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Video rendered: %s\n", absOutput)
	fmt.Printf("  Resolution: %dx%d\n", info.Width, info.Height)
	fmt.Printf("  Took: %s\n", time.Since(start).Round(time.Second))
	return nil
}
