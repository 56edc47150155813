package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/subtitle"
	"github.com/mgpai22/bilisub/internal/transcribe"
	"github.com/mgpai22/bilisub/internal/video"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Transcribe an audio or video file into English subtitles",
	Long: `Transcribe the specified audio or video file with Whisper.

The command accepts both audio files (mp3, wav, aac, etc.) and video files (mp4, mkv, etc.).
For video files, audio is automatically extracted before transcription.

The local provider runs the whisper command line tool. The openai provider
uses the Whisper API and splits long audio into chunks that are transcribed
in parallel.

Examples:
  bilisub transcribe video.mp4
  bilisub transcribe audio.mp3 --format vtt
  bilisub transcribe video.mp4 --provider openai --chunk-duration 5
  bilisub transcribe podcast.mp3 --provider local --model medium`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		String("provider", "", "Transcription provider (local, openai); default from config")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	transcribeCmd.Flags().
		String("model", "", "Whisper model; default from config")
	transcribeCmd.Flags().
		StringP("language", "l", "", "Spoken language code (e.g., en); default from config")
	transcribeCmd.Flags().
		IntP("chunk-duration", "d", 0, "Chunk duration in minutes for the openai provider; default from config")
	transcribeCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (srt, vtt, ass)")
	transcribeCmd.Flags().
		Int("concurrency", 0, "Number of parallel transcription workers; default from config")
	transcribeCmd.Flags().
		String("transcript-language", "native", "Output language for transcript ('native' or 'english')")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	t := cfg.Transcribe
	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	language, _ := cmd.Flags().GetString("language")
	chunkMinutes, _ := cmd.Flags().GetInt("chunk-duration")
	formatStr, _ := cmd.Flags().GetString("format")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	transcriptLang, _ := cmd.Flags().GetString("transcript-language")
	outputPath, _ := cmd.Flags().GetString("output")

	if providerStr == "" {
		providerStr = t.Provider
	}
	if model == "" {
		model = t.Model
	}
	if language == "" {
		language = t.Language
	}
	if chunkMinutes <= 0 {
		chunkMinutes = t.ChunkMinutes
	}
	if concurrency <= 0 {
		concurrency = t.Concurrency
	}
	if !isValidOpenAITranscriptLanguage(transcriptLang) {
		return fmt.Errorf("unsupported transcript language %q: Whisper can only keep the spoken language or translate to English", transcriptLang)
	}

	var format subtitle.Format
	switch strings.ToLower(formatStr) {
	case "srt":
		format = subtitle.FormatSRT
	case "vtt":
		format = subtitle.FormatVTT
	case "ass":
		format = subtitle.FormatASS
	default:
		return fmt.Errorf("unsupported format %q: use srt, vtt, or ass", formatStr)
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
		outputPath = baseName + subtitle.GetExtensionForFormat(format)
	}

	logger.Infow("Starting transcription",
		"input", mediaPath,
		"output", outputPath,
		"provider", providerStr,
		"model", model,
		"format", formatStr,
	)

	tempDir, err := os.MkdirTemp("", "bilisub-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath := filepath.Join(tempDir, "audio.mp3")
	compressionOpts := audio.DefaultCompressionOptions()

	if audio.IsVideoFile(mediaPath) {
		logger.Infow("Extracting audio from video")
		processor := video.NewProcessor(logger)
		extractOpts := video.ExtractAudioOptions{
			Format:     compressionOpts.Format,
			SampleRate: compressionOpts.SampleRate,
			Channels:   compressionOpts.Channels,
			Bitrate:    compressionOpts.Bitrate,
		}
		if err := processor.ExtractAudio(ctx, mediaPath, audioPath, extractOpts); err != nil {
			return fmt.Errorf("failed to extract audio: %w", err)
		}
	} else {
		logger.Infow("Compressing audio for transcription")
		if err := audio.CompressAudio(ctx, mediaPath, audioPath, compressionOpts); err != nil {
			return fmt.Errorf("failed to compress audio: %w", err)
		}
	}

	duration, err := audio.GetDuration(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("failed to get audio duration: %w", err)
	}
	logger.Infow("Audio prepared", "duration", duration.String())

	transcriber, err := newTranscriber(ctx, transcribe.Provider(providerStr), apiKey, transcribe.Options{
		Language:           language,
		TranscriptLanguage: transcriptLang,
		Model:              model,
		WhisperBinary:      t.WhisperBinary,
		WorkDir:            filepath.Join(tempDir, "whisper"),
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	var result *transcribe.Result
	chunkDur := time.Duration(chunkMinutes) * time.Minute
	if ct, ok := transcriber.(transcribe.ConcurrentTranscriber); ok && chunkDur > 0 && duration > chunkDur {
		chunks, err := audio.ChunkAudio(ctx, audioPath, chunkDur, filepath.Join(tempDir, "chunks"), concurrency)
		if err != nil {
			return fmt.Errorf("failed to split audio: %w", err)
		}
		logger.Infow("Transcribing audio in chunks",
			"chunks", len(chunks),
			"concurrency", concurrency,
		)
		result, err = ct.TranscribeWithChunks(ctx, chunks, concurrency)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
	} else {
		result, err = transcriber.Transcribe(ctx, audioPath)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
	}

	logger.Infow("Transcription complete", "segments", len(result.Segments))

	subs, err := transcribe.ToSubtitle(result)
	if err != nil {
		return err
	}
	subs.Language = language
	subs.Format = string(format)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(subs, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles generated successfully: %s\n", absOutput)
	fmt.Printf("  Entries: %d\n", len(subs.Entries))
	fmt.Printf("  Duration: %s\n", duration.String())

	return nil
}
