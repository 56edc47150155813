package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

const stderrTailLines = 20

// commandContext is swapped in tests.
var commandContext = exec.CommandContext

// Run executes ffmpeg with args. When progress is set, ffmpeg reports its
// position on stdout and progress receives the encoded duration so far.
// Failures carry the last lines ffmpeg wrote to stderr.
func Run(ctx context.Context, args []string, progress func(time.Duration)) error {
	ffmpegPath, err := FFmpegPath()
	if err != nil {
		return err
	}

	if progress != nil {
		args = append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	}

	cmd := commandContext(ctx, ffmpegPath, args...)
	stderr := &tailBuffer{max: stderrTailLines}
	cmd.Stderr = stderr

	var stdout io.ReadCloser
	if progress != nil {
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("ffmpeg stdout: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	if stdout != nil {
		readProgress(stdout, progress)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}
	return nil
}

// RunStream executes a graph built with ffmpeg-go.
func RunStream(ctx context.Context, stream *ffmpeggo.Stream) error {
	return Run(ctx, stream.GetArgs(), nil)
}

// Inspect returns ffprobe's JSON description of path.
func Inspect(ctx context.Context, path string) ([]byte, error) {
	ffprobePath, err := FFprobePath()
	if err != nil {
		return nil, err
	}

	cmd := commandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var out bytes.Buffer
	stderr := &tailBuffer{max: stderrTailLines}
	cmd.Stdout = &out
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}

func readProgress(r io.Reader, progress func(time.Duration)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok || key != "out_time_us" {
			continue
		}
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			continue
		}
		progress(time.Duration(us) * time.Microsecond)
	}
}

// tailBuffer keeps the last max lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	max   int
	lines []string
	part  string
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	chunks := strings.Split(b.part+string(p), "\n")
	b.part = chunks[len(chunks)-1]
	for _, line := range chunks[:len(chunks)-1] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		b.lines = append(b.lines, line)
	}
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = b.lines[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := b.lines
	if strings.TrimSpace(b.part) != "" {
		lines = append(lines[:len(lines):len(lines)], b.part)
	}
	return strings.Join(lines, "\n")
}
