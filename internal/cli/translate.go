package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/subtitle"
	"github.com/mgpai22/bilisub/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate English subtitles to Chinese",
	Long: `Translate an existing subtitle file, English to Chinese by default.

Supports SRT, VTT, and ASS/SSA formats. For ASS files, all styling and
formatting is preserved - only the dialogue text is translated.

The manual provider writes translation_prompt.txt into the work directory
and waits until subtitles/chinese_translation.srt appears there. The
gemini, openai and anthropic providers call the API in concurrent batches
and remember every translation in the local cache.

The --overlay flag creates bilingual subtitles with the translated text
first, followed by the original text on the next line.

Examples:
  bilisub translate english.srt
  bilisub translate english.srt --provider openai -o chinese.srt
  bilisub translate video.ass --provider gemini --overlay
  bilisub translate english.srt --provider manual --work-dir ./project`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language; default from config")
	translateCmd.Flags().
		StringP("language", "l", "", "Source language; default from config")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		String("provider", "", "Translation provider (manual, gemini, openai, anthropic); default from config")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers; default from config")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request; default from config")
	translateCmd.Flags().
		String("work-dir", "", "Directory for the manual provider's prompt and response files")
	translateCmd.Flags().
		Bool("no-cache", false, "Do not read or write the translation cache")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	workDir, _ := cmd.Flags().GetString("work-dir")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	outputPath, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	ext := strings.ToLower(filepath.Ext(subtitlePath))
	if ext != ".srt" && ext != ".vtt" && ext != ".ass" && ext != ".ssa" {
		return fmt.Errorf(
			"unsupported subtitle format %q: use .srt, .vtt, .ass, or .ssa",
			ext,
		)
	}

	opts := translateOptions(workDir)
	if targetLang != "" {
		opts.TargetLanguage = targetLang
	}
	if inputLang != "" {
		opts.InputLanguage = inputLang
	}
	if model != "" {
		opts.Model = model
	}
	if batchSize > 0 {
		opts.BatchSize = batchSize
	}
	if concurrency <= 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	provider := translate.Provider(providerStr)
	if provider == translate.ProviderManual && opts.WorkDir == "" {
		opts.WorkDir = filepath.Dir(subtitlePath)
	}

	if strings.EqualFold(strings.TrimSpace(opts.InputLanguage), strings.TrimSpace(opts.TargetLanguage)) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			opts.InputLanguage,
			opts.TargetLanguage,
		)
	}

	if outputPath == "" {
		outputPath = defaultTranslationPath(subtitlePath, opts.TargetLanguage, overlay)
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"provider", provider,
		"target_language", opts.TargetLanguage,
		"overlay", overlay,
		"model", opts.Model,
	)

	subFile, err := subtitle.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	sub := subFile.Subtitle()
	if len(sub.Entries) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}
	logger.Infow("Parsed subtitle file",
		"entries", len(sub.Entries),
		"format", subFile.Format(),
	)

	session := &translatorSession{}
	defer session.Close()
	translator, err := session.build(ctx, provider, apiKey, opts, cfg.Translate.Cache && !noCache)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}
	if manual, ok := translator.(*translate.ManualTranslator); ok {
		fmt.Printf("Translation prompt: %s\n", manual.PromptPath())
		fmt.Printf("Save the Chinese SRT to: %s\n", manual.ResponsePath())
	}

	items := translate.ItemsFromSubtitle(sub)
	logger.Infow("Translating subtitles",
		"items", len(items),
		"concurrency", concurrency,
	)
	results, err := translate.Run(ctx, translator, items, concurrency)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	if cached, ok := translator.(*translate.CachedTranslator); ok {
		stats := cached.Stats()
		logger.Infow("Translation cache", "hits", stats.Hits, "misses", stats.Misses)
	}

	if err := applyResults(subFile, results, overlay); err != nil {
		return err
	}

	if err := subFile.Write(outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles translated successfully: %s\n", absOutput)
	fmt.Printf("  Entries: %d\n", len(sub.Entries))
	fmt.Printf("  Target language: %s\n", opts.TargetLanguage)
	if overlay {
		fmt.Printf("  Mode: bilingual overlay\n")
	}

	return nil
}

func defaultTranslationPath(subtitlePath, targetLang string, overlay bool) string {
	ext := filepath.Ext(subtitlePath)
	baseName := strings.TrimSuffix(subtitlePath, ext)
	lang := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(targetLang), " ", "_"))
	if overlay {
		return fmt.Sprintf("%s.%s.overlay%s", baseName, lang, ext)
	}
	return fmt.Sprintf("%s.%s%s", baseName, lang, ext)
}

// applyResults writes translations back into subFile, either replacing the
// text or stacking it above the original.
func applyResults(subFile subtitle.File, results []translate.TranslationResult, overlay bool) error {
	sub := subFile.Subtitle()
	assFile, isASS := subFile.(*subtitle.ASSFile)

	for _, result := range results {
		if result.Index < 0 || result.Index >= len(sub.Entries) {
			logger.Warnw("Skipping invalid result index",
				"index", result.Index,
				"max", len(sub.Entries)-1,
			)
			continue
		}

		var err error
		switch {
		case overlay && isASS:
			err = assFile.SetTextWithOverlay(result.Index, result.Text)
		case overlay:
			// translated + newline + original
			err = subFile.SetText(result.Index, result.Text+"\n"+sub.Entries[result.Index].Text)
		default:
			err = subFile.SetText(result.Index, result.Text)
		}
		if err != nil {
			return fmt.Errorf("failed to set text for entry %d: %w", result.Index, err)
		}
	}
	return nil
}
