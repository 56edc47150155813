package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/download"
	"github.com/mgpai22/bilisub/internal/pipeline"
	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/publish"
	"github.com/mgpai22/bilisub/internal/transcribe"
	"github.com/mgpai22/bilisub/internal/translate"
	"github.com/mgpai22/bilisub/internal/video"
)

var runCmd = &cobra.Command{
	Use:   "run [url|file]",
	Short: "Run the whole pipeline for one video",
	Long: `Download, transcribe, translate, compose, generate danmaku, render every
configured variant, write the workflow summary and (when configured) publish.

Each finished step is recorded in the project's project.json. Re-running with
--resume skips recorded steps whose outputs still exist, so an interrupted
run or a manual translation can be picked up where it stopped.

Examples:
  bilisub run https://www.youtube.com/watch?v=...
  bilisub run clip.mp4 --translate-provider openai
  bilisub run --resume output/Clip_20250120_210509
  bilisub run --resume output/Clip_20250120_210509 --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("resume", "", "Continue an existing project directory")
	runCmd.Flags().Bool("force", false, "Rerun steps that are already done")
	runCmd.Flags().Bool("no-danmaku", false, "Skip danmaku generation and the danmaku render")
	runCmd.Flags().Bool("no-publish", false, "Do not upload the results")
	runCmd.Flags().Bool("no-cache", false, "Do not read or write the translation cache")
	runCmd.Flags().String("transcribe-provider", "", "Transcription provider (local, openai); default from config")
	runCmd.Flags().String("translate-provider", "", "Translation provider (manual, gemini, openai, anthropic); default from config")
	runCmd.Flags().Uint64("seed", 0, "Danmaku random seed (0 = random)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	resumeDir, _ := cmd.Flags().GetString("resume")
	force, _ := cmd.Flags().GetBool("force")
	noDanmaku, _ := cmd.Flags().GetBool("no-danmaku")
	noPublish, _ := cmd.Flags().GetBool("no-publish")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	transcribeProvider, _ := cmd.Flags().GetString("transcribe-provider")
	translateProvider, _ := cmd.Flags().GetString("translate-provider")
	seed, _ := cmd.Flags().GetUint64("seed")
	outputRoot, _ := cmd.Flags().GetString("output")

	if (resumeDir == "") == (len(args) == 0) {
		return errors.New("give either a url/file or --resume <project dir>")
	}

	runCfg := *cfg
	if outputRoot != "" {
		runCfg.Paths.OutputRoot = outputRoot
	}
	if noDanmaku {
		runCfg.Danmaku.Enabled = false
	}
	if transcribeProvider != "" {
		runCfg.Transcribe.Provider = transcribeProvider
	}
	if translateProvider != "" {
		runCfg.Translate.Provider = translateProvider
	}

	// Missing keys fail here rather than after the download and transcription.
	translateProviderName := translate.Provider(runCfg.Translate.Provider)
	if _, err := resolveAPIKey("", translate.APIKeyEnv(translateProviderName)); err != nil {
		return fmt.Errorf("%s translation: %w", translateProviderName, err)
	}

	t := runCfg.Transcribe
	transcriber, err := newTranscriber(ctx, transcribe.Provider(t.Provider), "", transcribe.Options{
		Language:      t.Language,
		Model:         t.Model,
		WhisperBinary: t.WhisperBinary,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	session := &translatorSession{}
	defer session.Close()
	translatorFor := func(p *project.Project) (translate.Translator, error) {
		tr, err := session.build(ctx, translateProviderName, "", translateOptions(p.Dir), runCfg.Translate.Cache && !noCache)
		if err != nil {
			return nil, err
		}
		if manual, ok := tr.(*translate.ManualTranslator); ok {
			fmt.Print(manualNotice(manual.PromptPath(), manual.ResponsePath()))
		}
		return tr, nil
	}

	runner := &pipeline.Runner{
		Config:      &runCfg,
		Downloader:  download.New(runCfg.Download, logger),
		Media:       video.NewProcessor(logger),
		Transcriber: transcriber,
		Translator:  translatorFor,
		Logger:      logger,
		Force:       force,
		DanmakuSeed: seed,
		RenderProgress: func(variant string, pos, total time.Duration) {
			logger.Debugw("Render progress", "variant", variant, "position", pos.Round(time.Second), "total", total)
		},
	}

	if runCfg.Publish.Enabled() && !noPublish {
		pub, err := publish.New(runCfg.Publish, logger)
		if err != nil {
			return err
		}
		runner.Publisher = pub
	}

	var result *pipeline.Result
	if resumeDir != "" {
		result, err = runner.Resume(ctx, resumeDir)
	} else {
		result, err = runner.Run(ctx, args[0])
	}
	if result != nil && result.Project != nil {
		fmt.Printf("Project: %s\n", result.Project.Dir)
	}
	if err != nil {
		if errors.Is(err, translate.ErrTimeout) {
			fmt.Println("Translation not received in time; rerun with --resume once it is saved.")
		}
		return err
	}

	rows := make([][]string, 0, len(result.Videos))
	for _, v := range result.Videos {
		size := "-"
		if info, err := os.Stat(v); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		rel, _ := filepath.Rel(result.Project.Dir, v)
		rows = append(rows, []string{rel, size})
	}
	fmt.Println(renderTable([]string{"Video", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped completed steps: %v\n", result.Skipped)
	}
	if len(result.Published) > 0 {
		fmt.Printf("Published %d objects\n", len(result.Published))
	}
	return nil
}

// manualNotice tells the user where the manual translation goes, or that an
// existing one will be used.
func manualNotice(promptPath, responsePath string) string {
	if info, err := os.Stat(responsePath); err == nil && info.Size() > 0 {
		return fmt.Sprintf("Using existing translation: %s\n", responsePath)
	}
	return fmt.Sprintf("Waiting for translation.\n  Prompt: %s\n  Save the Chinese SRT to: %s\n",
		promptPath, responsePath)
}
