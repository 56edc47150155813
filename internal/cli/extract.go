package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/video"
)

var audioFormats = []string{"mp3", "wav", "aac", "flac"}

var extractCmd = &cobra.Command{
	Use:   "extract [video_file|project_dir]",
	Short: "Extract the audio track for transcription",
	Long: `Extract the audio track of a video. The defaults (mono, 16 kHz, 64k mp3)
are what Whisper wants and keep uploads to the API small.

Given a project directory, the project's video is read and the audio is
written to temp/audio.mp3, where the transcribe step looks for it.

Examples:
  bilisub extract talk.mp4
  bilisub extract output/Clip_20250120_210509
  bilisub extract talk.mp4 -o talk.wav -f wav --sample-rate 44100 --channels 2`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		StringP("format", "f", "mp3", "Output audio format ("+strings.Join(audioFormats, ", ")+")")
	extractCmd.Flags().
		IntP("sample-rate", "r", 16000, "Sample rate in Hz")
	extractCmd.Flags().
		IntP("channels", "c", 1, "Number of audio channels (1=mono, 2=stereo)")
	extractCmd.Flags().
		StringP("bitrate", "b", "64k", "Bitrate for lossy formats")
}

// extractPaths resolves the input video and default output for target,
// which is either a media file or a project directory.
func extractPaths(target, format, outputPath string) (string, string, error) {
	if info, err := os.Stat(filepath.Join(target, project.ManifestFile)); err == nil && !info.IsDir() {
		p, err := project.Open(target)
		if err != nil {
			return "", "", err
		}
		if outputPath == "" {
			outputPath = p.Path(project.KindAudio)
			if format != "mp3" {
				outputPath = strings.TrimSuffix(outputPath, ".mp3") + "." + format
			}
		}
		return p.Path(project.KindOriginal), outputPath, nil
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(target, filepath.Ext(target)) + "." + format
	}
	if outputPath == target {
		return "", "", errors.New("output would overwrite the input; pass -o")
	}
	return target, outputPath, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	bitrate, _ := cmd.Flags().GetString("bitrate")
	outputPath, _ := cmd.Flags().GetString("output")

	format = strings.ToLower(format)
	if !slices.Contains(audioFormats, format) {
		return fmt.Errorf("invalid format %q: supported formats are %s", format, strings.Join(audioFormats, ", "))
	}
	if format == "wav" || format == "flac" {
		bitrate = ""
	}

	videoPath, outputPath, err := extractPaths(args[0], format, outputPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Infow("Extracting audio",
		"video", videoPath,
		"output", outputPath,
		"format", format,
		"sample_rate", sampleRate,
		"channels", channels,
	)

	err = video.NewProcessor(logger).ExtractAudio(cmd.Context(), videoPath, outputPath, video.ExtractAudioOptions{
		Format:     format,
		SampleRate: sampleRate,
		Channels:   channels,
		Bitrate:    bitrate,
	})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Audio extracted: %s\n", absOutput)
	if info, err := os.Stat(outputPath); err == nil {
		fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}
