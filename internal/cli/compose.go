package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/subtitle"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Merge English and Chinese SRT files into a styled ASS file",
	Long: `Build an ASS subtitle file from an English and a Chinese SRT track using
the layout from the config: Chinese above English, the fixed watermark in the
top right corner.

Modes:
  bilingual  Chinese and English, paired by position with English timing
  chinese    Chinese only, lower on screen
  english    English only

A combined SRT, with the Chinese and English lines in the same cue, can
replace --en and --zh. --srt-out writes such a combined SRT as well.

Examples:
  bilisub compose --en english.srt --zh chinese.srt -o bilingual.ass
  bilisub compose --bilingual-srt bilingual.srt -o bilingual.ass
  bilisub compose --en english.srt --zh chinese.srt --srt-out bilingual.srt
  bilisub compose --zh chinese.srt --mode chinese -o chinese_only.ass`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().String("en", "", "English SRT file")
	composeCmd.Flags().String("zh", "", "Chinese SRT file")
	composeCmd.Flags().String("bilingual-srt", "", "Combined SRT with Chinese and English lines per cue")
	composeCmd.Flags().String("srt-out", "", "Also write a combined bilingual SRT to this path")
	composeCmd.Flags().StringP("mode", "m", "bilingual", "Output mode (bilingual, chinese, english)")
	composeCmd.Flags().String("title", "", "Script title written to [Script Info]")
}

func runCompose(cmd *cobra.Command, args []string) error {
	enPath, _ := cmd.Flags().GetString("en")
	zhPath, _ := cmd.Flags().GetString("zh")
	modeStr, _ := cmd.Flags().GetString("mode")
	title, _ := cmd.Flags().GetString("title")
	bilingualPath, _ := cmd.Flags().GetString("bilingual-srt")
	srtOut, _ := cmd.Flags().GetString("srt-out")
	outputPath, _ := cmd.Flags().GetString("output")

	mode, err := subtitle.ParseMode(modeStr)
	if err != nil {
		return err
	}

	en, zh, err := composeInputs(mode, enPath, zhPath, bilingualPath)
	if err != nil {
		return err
	}

	if srtOut != "" {
		merged, err := subtitle.MergeBilingual(en, zh)
		if err != nil {
			return fmt.Errorf("failed to merge tracks: %w", err)
		}
		if err := (&subtitle.SRTWriter{}).Write(merged, srtOut); err != nil {
			return fmt.Errorf("failed to write bilingual SRT: %w", err)
		}
		fmt.Printf("Bilingual SRT written: %s\n", srtOut)
	}

	doc, err := subtitle.Compose(en, zh, cfg.Layout, subtitle.ComposeOptions{
		Mode:   mode,
		Title:  title,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to compose subtitles: %w", err)
	}

	if outputPath == "" {
		outputPath = string(mode) + ".ass"
	}
	if err := doc.Write(outputPath); err != nil {
		return fmt.Errorf("failed to write ASS file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("ASS subtitles written: %s\n", absOutput)
	fmt.Printf("  Mode: %s\n", mode)
	fmt.Printf("  Events: %d\n", len(doc.Events))
	return nil
}

// composeInputs loads the tracks mode needs, either from separate files or
// from one combined bilingual SRT.
func composeInputs(mode subtitle.Mode, enPath, zhPath, bilingualPath string) (en, zh *subtitle.Subtitle, err error) {
	if bilingualPath != "" {
		if enPath != "" || zhPath != "" {
			return nil, nil, fmt.Errorf("--bilingual-srt replaces --en and --zh")
		}
		combined, err := subtitle.ReadSRTFile(bilingualPath)
		if err != nil {
			return nil, nil, err
		}
		return subtitle.SplitBilingual(combined)
	}

	if mode != subtitle.ModeChinese {
		if enPath == "" {
			return nil, nil, fmt.Errorf("--en is required for %s mode", mode)
		}
		if en, err = subtitle.ReadSRTFile(enPath); err != nil {
			return nil, nil, err
		}
	}
	if mode != subtitle.ModeEnglish {
		if zhPath == "" {
			return nil, nil, fmt.Errorf("--zh is required for %s mode", mode)
		}
		if zh, err = subtitle.ReadSRTFile(zhPath); err != nil {
			return nil, nil, err
		}
	}
	return en, zh, nil
}
