package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

const defaultWhisperModel = "base"

// CommandRunner executes an external program.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// LocalWhisper runs the openai-whisper command line tool and reads back the
// SRT it writes.
type LocalWhisper struct {
	binary  string
	model   string
	options Options
	run     CommandRunner
	logger  *logging.Logger
}

func NewLocalWhisper(opts Options) *LocalWhisper {
	binary := opts.WhisperBinary
	if binary == "" {
		binary = "whisper"
	}
	model := opts.Model
	if model == "" {
		model = defaultWhisperModel
	}
	return &LocalWhisper{
		binary:  binary,
		model:   model,
		options: opts,
		run:     defaultCommandRunner,
		logger:  logging.OrNop(opts.Logger),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *LocalWhisper) WithCommandRunner(runner CommandRunner) {
	w.run = runner
}

func (w *LocalWhisper) args(audioPath, outDir string) []string {
	args := []string{
		audioPath,
		"--model", w.model,
		"--output_format", "srt",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if w.options.Language != "" {
		args = append(args, "--language", w.options.Language)
	}
	if lang := strings.ToLower(strings.TrimSpace(w.options.TranscriptLanguage)); lang == "en" || lang == "english" {
		args = append(args, "--task", "translate")
	}
	if w.options.Prompt != "" {
		args = append(args, "--initial_prompt", w.options.Prompt)
	}
	return args
}

func (w *LocalWhisper) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	outDir := w.options.WorkDir
	if outDir == "" {
		tmp, err := os.MkdirTemp("", "bilisub-whisper-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		outDir = tmp
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
	}

	w.logger.Infow("Running whisper",
		"audio", audioPath,
		"model", w.model,
		"language", w.options.Language,
	)
	if err := w.run(ctx, w.binary, w.args(audioPath, outDir)...); err != nil {
		return nil, fmt.Errorf("whisper failed: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	srtPath := filepath.Join(outDir, base+".srt")
	sub, err := subtitle.ReadSRTFile(srtPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	result := &Result{Language: w.options.Language}
	for _, e := range sub.Entries {
		result.Segments = append(result.Segments, subtitle.Segment{
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Text:      strings.TrimSpace(e.Text),
		})
		result.Duration = max(result.Duration, e.EndTime)
	}
	return result, nil
}

func (w *LocalWhisper) TranscribeWithChunks(
	ctx context.Context,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	return runChunks(ctx, chunks, concurrency, w.options.Language,
		func(ctx context.Context, chunk audio.ChunkInfo) ([]subtitle.Segment, error) {
			return transcribeChunk(ctx, w, chunk)
		})
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, lastLines(string(output), 10))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
