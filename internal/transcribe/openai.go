package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

const defaultOpenAIModel = "whisper-1"

// errNoSpeech means every segment was empty or filtered out.
var errNoSpeech = errors.New("no speech in response")

// Whisper's own silence heuristic: a segment the model thinks is probably
// not speech and that it decoded with low confidence is a hallucination
// ("Thanks for watching!" over applause and music).
const (
	noSpeechThreshold = 0.6
	logProbThreshold  = -1.0
)

// OpenAITranscriber sends audio to the OpenAI audio API and reads the
// verbose_json segments back.
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
	logger  *logging.Logger
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   apiModel(opts.Model),
		options: opts,
		logger:  logging.OrNop(opts.Logger).Named("whisper-api"),
	}, nil
}

// apiModel maps a configured model to one the API serves. Local model
// names such as "base" or "large-v3" fall back to whisper-1.
func apiModel(model string) string {
	if strings.HasPrefix(model, "whisper") || strings.Contains(model, "transcribe") {
		return model
	}
	return defaultOpenAIModel
}

// translateToEnglish reports whether the transcript should come back in
// English regardless of the spoken language.
func (t *OpenAITranscriber) translateToEnglish() bool {
	switch strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage)) {
	case "en", "english":
		return true
	default:
		return false
	}
}

func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	duration, err := audio.GetDuration(ctx, audioPath)
	if err != nil {
		t.logger.Debugw("Could not read audio duration", "path", audioPath, "error", err)
	}

	var (
		raw, text string
		language  = t.options.Language
	)
	if t.translateToEnglish() {
		params := openai.AudioTranslationNewParams{
			File:           file,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		raw, text, language = resp.RawJSON(), resp.Text, "en"
	} else {
		params := openai.AudioTranscriptionNewParams{
			File:                   file,
			Model:                  openai.AudioModel(t.model),
			ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
			TimestampGranularities: []string{"segment"},
		}
		if t.options.Language != "" {
			params.Language = openai.String(t.options.Language)
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Transcriptions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("transcription failed: %w", err)
		}
		raw, text = resp.RawJSON(), resp.Text
	}

	if detected := gjson.Get(raw, "language").String(); detected != "" && language == "" {
		language = detected
	}
	return &Result{
		Segments: segmentsOrText(raw, text, duration),
		Language: language,
		Duration: duration,
	}, nil
}

// segmentsOrText falls back to one segment spanning the audio when the
// response has no usable segments.
func segmentsOrText(rawJSON, text string, duration time.Duration) []subtitle.Segment {
	segments, err := parseVerboseJSON(rawJSON, duration)
	if errors.Is(err, errNoSpeech) {
		return nil
	}
	if err != nil {
		return []subtitle.Segment{{EndTime: duration, Text: strings.TrimSpace(text)}}
	}
	return segments
}

// parseVerboseJSON reads the segments of a verbose_json response, dropping
// empty and hallucinated ones.
func parseVerboseJSON(rawJSON string, fallbackDuration time.Duration) ([]subtitle.Segment, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}
	if !gjson.Valid(rawJSON) {
		return nil, fmt.Errorf("failed to parse verbose_json response")
	}
	doc := gjson.Parse(rawJSON)

	var segments []subtitle.Segment
	for _, seg := range doc.Get("segments").Array() {
		text := strings.TrimSpace(seg.Get("text").String())
		if text == "" || hallucinated(seg) {
			continue
		}
		segments = append(segments, subtitle.Segment{
			StartTime: seconds(seg.Get("start").Float()),
			EndTime:   seconds(seg.Get("end").Float()),
			Text:      text,
		})
	}
	if len(segments) > 0 {
		return segments, nil
	}
	if len(doc.Get("segments").Array()) > 0 {
		return nil, errNoSpeech
	}

	text := strings.TrimSpace(doc.Get("text").String())
	if text == "" {
		return nil, fmt.Errorf("no segments or text in response")
	}
	end := fallbackDuration
	if d := doc.Get("duration").Float(); d > 0 {
		end = seconds(d)
	}
	return []subtitle.Segment{{EndTime: end, Text: text}}, nil
}

func hallucinated(seg gjson.Result) bool {
	noSpeech := seg.Get("no_speech_prob")
	logProb := seg.Get("avg_logprob")
	return noSpeech.Exists() && logProb.Exists() &&
		noSpeech.Float() > noSpeechThreshold && logProb.Float() < logProbThreshold
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// TranscribeWithChunks sends chunks in parallel and stitches the segments
// back onto the original timeline.
func (t *OpenAITranscriber) TranscribeWithChunks(
	ctx context.Context,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	return runChunks(ctx, chunks, concurrency, t.options.Language,
		func(ctx context.Context, chunk audio.ChunkInfo) ([]subtitle.Segment, error) {
			return transcribeChunk(ctx, t, chunk)
		})
}
