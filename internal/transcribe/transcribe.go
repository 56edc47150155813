package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

// transcription result
type Result struct {
	Segments []subtitle.Segment
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

type ConcurrentTranscriber interface {
	Transcriber
	TranscribeWithChunks(
		ctx context.Context,
		chunks []audio.ChunkInfo,
		concurrency int,
	) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderOpenAI Provider = "openai"
)

// transcription options
type Options struct {
	Language           string // Source language of audio
	TranscriptLanguage string // Output language for transcript (default: "native")
	Model              string
	Prompt             string

	// local provider only
	WhisperBinary string
	WorkDir       string

	Logger *logging.Logger
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderLocal:
		return NewLocalWhisper(opts), nil
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// ToSubtitle turns a result into readable SRT-ready captions.
func ToSubtitle(result *Result) (*subtitle.Subtitle, error) {
	if result == nil || len(result.Segments) == 0 {
		return nil, fmt.Errorf("transcription produced no speech: %w", subtitle.ErrNoEntries)
	}
	sub, err := subtitle.NewSegmentGenerator().Generate(result.Segments)
	if err != nil {
		return nil, fmt.Errorf("failed to build subtitles: %w", err)
	}
	sub.Language = result.Language
	return sub, nil
}
