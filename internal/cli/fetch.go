package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/download"
	"github.com/mgpai22/bilisub/internal/pipeline"
	"github.com/mgpai22/bilisub/internal/project"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url|file]",
	Short: "Download a video into a new project directory",
	Long: `Create <output_root>/<title>_<YYYYMMDD_HHMMSS>/ and download the video
into it with yt-dlp. A local file is linked or copied instead.

Continue with "bilisub run --resume <dir>".

Examples:
  bilisub fetch https://www.youtube.com/watch?v=...
  bilisub fetch ~/Videos/clip.mp4 -o ./projects`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx := cmd.Context()
	outputRoot, _ := cmd.Flags().GetString("output")
	if outputRoot == "" {
		outputRoot = cfg.Paths.OutputRoot
	}

	downloader := download.New(cfg.Download, logger)
	meta, err := downloader.Metadata(ctx, source)
	if err != nil {
		return err
	}

	p, err := project.Create(outputRoot, meta.Title, source, time.Now())
	if err != nil {
		return err
	}
	if err := p.Lock(); err != nil {
		return err
	}
	defer func() { _ = p.Unlock() }()

	v, err := downloader.Download(ctx, source, p.Dir)
	if err != nil {
		return err
	}
	if err := p.SetVideoFile(v.Path); err != nil {
		return err
	}
	p.Manifest.Uploader = v.Uploader
	p.Manifest.WebpageURL = v.WebpageURL
	p.Manifest.DurationS = v.Duration.Seconds()
	if err := p.MarkStep(pipeline.StepFetch, v.Path); err != nil {
		return err
	}

	fmt.Printf("Project created: %s\n", p.Dir)
	fmt.Printf("  Title: %s\n", meta.Title)
	fmt.Printf("  Video: %s\n", v.Path)
	return nil
}
