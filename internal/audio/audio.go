package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"

	ffmpegbin "github.com/mgpai22/bilisub/internal/ffmpeg"
)

// audio chunk info
type ChunkInfo struct {
	Path      string
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
}

// settings for audio compression
type CompressionOptions struct {
	Format     string // Output format (mp3, aac, wav)
	SampleRate int    // Sample rate in Hz
	Channels   int    // Number of channels (1=mono, 2=stereo)
	Bitrate    string // Bitrate (e.g., "64k", "128k")
}

// defaults for transcription
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// duration of an audio/video file
func GetDuration(ctx context.Context, filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	out, err := ffmpegbin.Inspect(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return parseDuration(out)
}

func parseDuration(data []byte) (time.Duration, error) {
	value := gjson.GetBytes(data, "format.duration")
	if !value.Exists() {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}
	seconds := value.Float()
	if seconds <= 0 {
		return 0, fmt.Errorf("failed to parse duration %q", value.String())
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// codecArgs maps a compression format to ffmpeg output arguments.
func codecArgs(opts CompressionOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}
	switch opts.Format {
	case "aac":
		kwargs["acodec"] = "aac"
	case "wav":
		kwargs["acodec"] = "pcm_s16le"
		return kwargs
	default:
		kwargs["acodec"] = "libmp3lame"
	}
	if opts.Bitrate != "" {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

// compresses an audio file with the given options
func CompressAudio(
	ctx context.Context,
	inputPath, outputPath string,
	opts CompressionOptions,
) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stream := ffmpeg.Input(inputPath).
		Output(outputPath, codecArgs(opts)).
		OverWriteOutput()

	if err := ffmpegbin.RunStream(ctx, stream); err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	return nil
}

// planChunks lays out [start, end) windows covering total.
func planChunks(total, chunkDuration time.Duration, audioPath, outputDir string) []ChunkInfo {
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)

	var chunks []ChunkInfo
	for i := 0; ; i++ {
		start := time.Duration(i) * chunkDuration
		if start >= total {
			break
		}
		chunks = append(chunks, ChunkInfo{
			Path:      filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", baseName, i, ext)),
			Index:     i,
			StartTime: start,
			EndTime:   min(start+chunkDuration, total),
		})
	}
	return chunks
}

// ChunkAudio splits an audio file into chunks of chunkDuration, cutting up
// to concurrency chunks at a time (10 when not positive).
func ChunkAudio(
	ctx context.Context,
	audioPath string,
	chunkDuration time.Duration,
	outputDir string,
	concurrency int,
) ([]ChunkInfo, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunkDuration)
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	totalDuration, err := GetDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	chunks := planChunks(totalDuration, chunkDuration, audioPath, outputDir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			stream := ffmpeg.Input(audioPath).
				Output(chunk.Path, ffmpeg.KwArgs{
					"ss": chunk.StartTime.Seconds(),
					"t":  (chunk.EndTime - chunk.StartTime).Seconds(),
					"c":  "copy",
				}).
				OverWriteOutput()
			if err := ffmpegbin.RunStream(gctx, stream); err != nil {
				return fmt.Errorf("failed to create chunk %d: %w", chunk.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = CleanupChunks(chunks)
		return nil, err
	}

	return chunks, nil
}

var (
	videoExts = map[string]bool{
		".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
		".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
		".mpeg": true, ".mpg": true, ".3gp": true,
	}
	audioExts = map[string]bool{
		".mp3": true, ".wav": true, ".aac": true, ".flac": true,
		".ogg": true, ".m4a": true, ".wma": true, ".aiff": true,
		".opus": true,
	}
)

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is either audio or video
func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

// removes all chunk files
func CleanupChunks(chunks []ChunkInfo) error {
	var lastErr error
	for _, chunk := range chunks {
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
