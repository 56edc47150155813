package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/bilisub/internal/ffmpeg"
	"github.com/mgpai22/bilisub/internal/logging"
)

// video file information
type Info struct {
	Path       string
	Duration   time.Duration
	Width      int
	Height     int
	FrameRate  float64
	Codec      string
	AudioCodec string
	HasAudio   bool
}

// defines interface for video processing operations
type Processor interface {
	// extracts audio from video file
	ExtractAudio(
		ctx context.Context,
		videoPath, outputPath string,
		opts ExtractAudioOptions,
	) error

	// retrieves video file information
	GetInfo(ctx context.Context, videoPath string) (*Info, error)

	// burns subtitles and a watermark into a new file
	Burn(ctx context.Context, opts BurnOptions) error
}

// holds options for audio extraction
type ExtractAudioOptions struct {
	Format     string // Output format (wav, mp3, aac, flac)
	SampleRate int    // Sample rate in Hz (e.g., 16000, 44100, 48000)
	Channels   int    // Number of channels (1 = mono, 2 = stereo)
	Bitrate    string // Bitrate for lossy formats (e.g., "128k", "320k")
	Filter     string // Optional -af filter chain
}

// returns sensible defaults for audio extraction
func DefaultExtractAudioOptions() ExtractAudioOptions {
	return ExtractAudioOptions{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
	}
}

// default implementation using ffmpeg
type DefaultProcessor struct {
	logger *logging.Logger
}

func NewProcessor(logger *logging.Logger) *DefaultProcessor {
	return &DefaultProcessor{logger: logging.OrNop(logger)}
}

func extractArgs(opts ExtractAudioOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}

	switch opts.Format {
	case "mp3":
		kwargs["acodec"] = "libmp3lame"
	case "aac":
		kwargs["acodec"] = "aac"
	case "flac":
		kwargs["acodec"] = "flac"
	default:
		kwargs["acodec"] = "pcm_s16le"
	}
	if (opts.Format == "mp3" || opts.Format == "aac") && opts.Bitrate != "" {
		kwargs["b:a"] = opts.Bitrate
	}
	if opts.Filter != "" {
		kwargs["af"] = opts.Filter
	}
	return kwargs
}

// extracts audio from video file
func (p *DefaultProcessor) ExtractAudio(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractAudioOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stream := ffmpeg.Input(videoPath).
		Output(outputPath, extractArgs(opts)).
		OverWriteOutput()

	if err := ffmpegbin.RunStream(ctx, stream); err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w", err)
	}

	p.logger.Debugw("Extracted audio", "input", videoPath, "output", outputPath)
	return nil
}

// retrieves video file information
func (p *DefaultProcessor) GetInfo(
	ctx context.Context,
	videoPath string,
) (*Info, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	out, err := ffmpegbin.Inspect(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	info, err := parseInfo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", videoPath, err)
	}
	info.Path = videoPath
	return info, nil
}

func parseInfo(data []byte) (*Info, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid ffprobe output")
	}
	doc := gjson.ParseBytes(data)

	info := &Info{}
	if d := doc.Get("format.duration"); d.Exists() {
		info.Duration = time.Duration(d.Float() * float64(time.Second))
	}

	foundVideo := false
	for _, s := range doc.Get("streams").Array() {
		switch s.Get("codec_type").String() {
		case "video":
			if foundVideo || s.Get("disposition.attached_pic").Int() == 1 {
				continue
			}
			foundVideo = true
			info.Width = int(s.Get("width").Int())
			info.Height = int(s.Get("height").Int())
			info.Codec = s.Get("codec_name").String()
			info.FrameRate = parseFrameRate(s.Get("avg_frame_rate").String())
			if info.FrameRate == 0 {
				info.FrameRate = parseFrameRate(s.Get("r_frame_rate").String())
			}
			if info.Duration == 0 {
				info.Duration = time.Duration(s.Get("duration").Float() * float64(time.Second))
			}
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = s.Get("codec_name").String()
			}
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream")
	}
	return info, nil
}

// parseFrameRate reads ffprobe rates such as "30000/1001".
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
