package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/config"
	"github.com/mgpai22/bilisub/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bilisub",
	Short: "Bilingual subtitle and danmaku pipeline for Bilibili uploads",
	Long: `bilisub turns an English video into a Bilibili-ready upload:
download, Whisper transcription, English to Chinese translation,
bilingual ASS subtitles, generated danmaku and an FFmpeg burn with
a watermark.

Each step is also available as its own command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys may live in .env next to where bilisub runs.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		logger = logging.NewLogger(verbose)

		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if exists {
			logger.Debugw("Loaded config", "path", path)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ~/.config/bilisub/config.toml or ./bilisub.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file or directory")
}
