package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/danmaku"
	"github.com/mgpai22/bilisub/internal/subtitle"
	"github.com/mgpai22/bilisub/internal/video"
)

var danmakuCmd = &cobra.Command{
	Use:   "danmaku",
	Short: "Generate and convert danmaku (bullet comment) files",
	Long: `Generate simulated audience comments for a video and convert them between
the danmaku_list JSON, burnable ASS and Bilibili XML formats.`,
}

var danmakuGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a danmaku_list JSON file",
	Long: `Generate comments from the built-in template pools.

The video length comes from --video (read with ffprobe) or --duration.
With --transcript, lines that mention highlight keywords get an extra
reaction a moment after they are spoken.

Examples:
  bilisub danmaku generate --video original_video.mp4 --transcript english.srt
  bilisub danmaku generate --duration 10m --density high -o danmaku.json`,
	Args: cobra.NoArgs,
	RunE: runDanmakuGenerate,
}

var danmakuASSCmd = &cobra.Command{
	Use:   "ass [danmaku_json]",
	Short: "Convert a danmaku JSON file to ASS for burning",
	Args:  cobra.ExactArgs(1),
	RunE:  runDanmakuASS,
}

var danmakuXMLCmd = &cobra.Command{
	Use:   "xml [danmaku_json]",
	Short: "Convert a danmaku JSON file to Bilibili XML",
	Args:  cobra.ExactArgs(1),
	RunE:  runDanmakuXML,
}

var danmakuJianyingCmd = &cobra.Command{
	Use:   "jianying [danmaku_json]",
	Short: "Build a JianYing draft that overlays the comments on a video",
	Long: `Write a draft_content.json that JianYing opens as a project with the
video on one track and every comment as an editable text segment.

Examples:
  bilisub danmaku jianying danmaku.json --video original_video.mp4
  bilisub danmaku jianying danmaku.json --video clip.mp4 -o drafts/clip/draft_content.json`,
	Args: cobra.ExactArgs(1),
	RunE: runDanmakuJianying,
}

var danmakuReportCmd = &cobra.Command{
	Use:   "report [danmaku_file]",
	Short: "Summarise a danmaku JSON or XML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDanmakuReport,
}

func init() {
	rootCmd.AddCommand(danmakuCmd)
	danmakuCmd.AddCommand(danmakuGenerateCmd, danmakuASSCmd, danmakuXMLCmd, danmakuJianyingCmd, danmakuReportCmd)

	danmakuGenerateCmd.Flags().String("video", "", "Video file to take the duration from")
	danmakuGenerateCmd.Flags().Duration("duration", 0, "Video duration (e.g., 90s, 12m30s)")
	danmakuGenerateCmd.Flags().String("transcript", "", "English SRT used to place highlight reactions")
	danmakuGenerateCmd.Flags().String("density", "", "Comment density (low, medium, high); default from config")
	danmakuGenerateCmd.Flags().Bool("trump-focus", false, "Weight Trump-specific comments higher")
	danmakuGenerateCmd.Flags().Bool("no-emoji", false, "Leave out emoji comments")
	danmakuGenerateCmd.Flags().Uint64("seed", 0, "Random seed for reproducible output (0 = random)")

	danmakuASSCmd.Flags().Int("width", 1920, "Video width")
	danmakuASSCmd.Flags().Int("height", 1080, "Video height")
	danmakuASSCmd.Flags().Duration("display", 0, "How long each comment stays on screen; default from config")

	danmakuJianyingCmd.Flags().String("video", "", "Video the comments are laid over (required)")
	danmakuJianyingCmd.Flags().String("name", "", "Draft name shown in JianYing")
	_ = danmakuJianyingCmd.MarkFlagRequired("video")
}

func runDanmakuGenerate(cmd *cobra.Command, args []string) error {
	videoPath, _ := cmd.Flags().GetString("video")
	duration, _ := cmd.Flags().GetDuration("duration")
	transcriptPath, _ := cmd.Flags().GetString("transcript")
	density, _ := cmd.Flags().GetString("density")
	trumpFocus, _ := cmd.Flags().GetBool("trump-focus")
	noEmoji, _ := cmd.Flags().GetBool("no-emoji")
	seed, _ := cmd.Flags().GetUint64("seed")
	outputPath, _ := cmd.Flags().GetString("output")

	if videoPath != "" {
		info, err := video.NewProcessor(logger).GetInfo(cmd.Context(), videoPath)
		if err != nil {
			return fmt.Errorf("failed to read video duration: %w", err)
		}
		duration = info.Duration
	}
	if duration <= 0 {
		return fmt.Errorf("either --video or --duration is required")
	}

	var transcript *subtitle.Subtitle
	if transcriptPath != "" {
		sub, err := subtitle.ReadSRTFile(transcriptPath)
		if err != nil {
			return err
		}
		transcript = sub
	}

	opts := danmaku.DefaultOptions()
	opts.Density = danmaku.Density(cfg.Danmaku.Density)
	if density != "" {
		opts.Density = danmaku.Density(strings.ToLower(density))
	}
	opts.TrumpFocus = cfg.Danmaku.TrumpFocus || trumpFocus
	opts.IncludeEmoji = cfg.Danmaku.IncludeEmoji && !noEmoji
	opts.MinGap = cfg.Danmaku.MinGap()
	opts.Seed = seed
	opts.Logger = logger

	gen, err := danmaku.NewGenerator(opts)
	if err != nil {
		return err
	}
	items, err := gen.Generate(duration, transcript)
	if err != nil {
		return err
	}
	records, err := danmaku.ToRecords(items)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = "danmaku.json"
	}
	if err := danmaku.WriteJSON(outputPath, records); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Danmaku generated: %s\n", absOutput)
	fmt.Printf("  Comments: %d\n", len(records))
	fmt.Printf("  Duration: %s\n", duration)
	return nil
}

func runDanmakuASS(cmd *cobra.Command, args []string) error {
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	display, _ := cmd.Flags().GetDuration("display")
	outputPath, _ := cmd.Flags().GetString("output")

	records, err := danmaku.ReadJSON(args[0])
	if err != nil {
		return err
	}
	if display <= 0 {
		display = cfg.Danmaku.Display()
	}
	doc, err := danmaku.ToASS(records, danmaku.ASSOptions{
		Width:    width,
		Height:   height,
		Display:  display,
		Font:     cfg.Danmaku.Font,
		FontSize: cfg.Danmaku.FontSize,
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".ass"
	}
	if err := doc.Write(outputPath); err != nil {
		return fmt.Errorf("failed to write ASS file: %w", err)
	}
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Danmaku ASS written: %s (%d comments)\n", absOutput, len(records))
	return nil
}

func runDanmakuXML(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	records, err := danmaku.ReadJSON(args[0])
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".xml"
	}
	if err := danmaku.WriteBilibiliXML(outputPath, records); err != nil {
		return err
	}
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Bilibili XML written: %s (%d comments)\n", absOutput, len(records))
	return nil
}

func runDanmakuJianying(cmd *cobra.Command, args []string) error {
	videoPath, _ := cmd.Flags().GetString("video")
	name, _ := cmd.Flags().GetString("name")
	outputPath, _ := cmd.Flags().GetString("output")

	records, err := danmaku.ReadJSON(args[0])
	if err != nil {
		return err
	}
	absVideo, err := filepath.Abs(videoPath)
	if err != nil {
		return err
	}
	info, err := video.NewProcessor(logger).GetInfo(cmd.Context(), absVideo)
	if err != nil {
		return fmt.Errorf("failed to read video info: %w", err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(absVideo), filepath.Ext(absVideo))
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(args[0]), "jianying", danmaku.JianyingDraftFile)
	}
	err = danmaku.WriteJianyingDraft(outputPath, records, danmaku.JianyingOptions{
		VideoPath: absVideo,
		Duration:  info.Duration,
		Width:     info.Width,
		Height:    info.Height,
		FrameRate: info.FrameRate,
		Display:   cfg.Danmaku.Display(),
		Name:      name,
	})
	if err != nil {
		return err
	}
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("JianYing draft written: %s (%d comments)\n", absOutput, len(records))
	return nil
}

func runDanmakuReport(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	var (
		records []danmaku.Record
		err     error
	)
	if strings.EqualFold(filepath.Ext(args[0]), ".xml") {
		records, err = danmaku.ReadBilibiliXML(args[0])
	} else {
		records, err = danmaku.ReadJSON(args[0])
	}
	if err != nil {
		return err
	}

	report := danmaku.Analyze(records)
	fmt.Println(renderTable(
		[]string{"Category", "Count", "Share"},
		countRows(report, report.Categories),
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	fmt.Println(renderTable(
		[]string{"Style", "Count", "Share"},
		countRows(report, report.Styles),
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	if report.Total > 0 {
		fmt.Printf("Total %d, first %s, last %s, average gap %s, smallest gap %s\n",
			report.Total,
			report.First.Round(100*time.Millisecond),
			report.Last.Round(100*time.Millisecond),
			report.AverageGap.Round(100*time.Millisecond),
			report.MinGap.Round(100*time.Millisecond),
		)
	}

	if outputPath == "" {
		return nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()
	if err := report.WriteText(f, records); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func countRows(report danmaku.Report, counts []danmaku.Count) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{
			c.Label,
			strconv.Itoa(c.N),
			fmt.Sprintf("%.1f%%", report.Percent(c.N)),
		})
	}
	return rows
}
