// Package download fetches source videos with yt-dlp or imports local files
// into a project directory.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mgpai22/bilisub/internal/config"
	"github.com/mgpai22/bilisub/internal/logging"
)

// BaseName is the file name (without extension) every source video gets
// inside a project.
const BaseName = "original_video"

const defaultTimeout = 300 * time.Second

// Video describes a fetched or imported source.
type Video struct {
	ID         string
	Title      string
	Uploader   string
	Duration   time.Duration
	WebpageURL string
	Path       string
	InfoPath   string
}

// CommandRunner runs an external program and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Downloader drives yt-dlp.
type Downloader struct {
	binary  string
	format  string
	cookies string
	timeout time.Duration
	run     CommandRunner
	logger  *logging.Logger
}

func New(cfg config.Download, logger *logging.Logger) *Downloader {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Downloader{
		binary:  binary,
		format:  cfg.Format,
		cookies: cfg.CookiesFile,
		timeout: timeout,
		run:     defaultCommandRunner,
		logger:  logging.OrNop(logger),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Downloader) WithCommandRunner(runner CommandRunner) {
	d.run = runner
}

// IsURL reports whether source should be handed to yt-dlp.
func IsURL(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Metadata describes source without downloading it. Local files are described from
// their name.
func (d *Downloader) Metadata(ctx context.Context, source string) (*Video, error) {
	if !IsURL(source) {
		return describeLocal(source)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := []string{"--dump-json", "--skip-download", "--no-playlist", "--no-warnings"}
	args = append(args, d.cookieArgs()...)
	args = append(args, source)

	out, err := d.run(ctx, d.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read video metadata: %w", err)
	}
	video, err := parseInfo(out)
	if err != nil {
		return nil, err
	}
	if video.WebpageURL == "" {
		video.WebpageURL = source
	}
	return video, nil
}

// Download stores source in dir as original_video.<ext>. URLs go through
// yt-dlp; anything else is treated as a local file.
func (d *Downloader) Download(ctx context.Context, source, dir string) (*Video, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	if !IsURL(source) {
		return importLocal(source, dir)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Infow("Downloading video", "url", source, "dir", dir)
	start := time.Now()
	if _, err := d.run(ctx, d.binary, d.downloadArgs(source, dir)...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("download timed out after %s: %w", d.timeout, err)
		}
		return nil, fmt.Errorf("failed to download video: %w", err)
	}

	path, err := findOutput(dir)
	if err != nil {
		return nil, err
	}

	infoPath := filepath.Join(dir, BaseName+".info.json")
	video := &Video{Path: path, WebpageURL: source}
	if data, err := os.ReadFile(infoPath); err == nil {
		if parsed, err := parseInfo(data); err == nil {
			video = parsed
			video.Path = path
			video.InfoPath = infoPath
			if video.WebpageURL == "" {
				video.WebpageURL = source
			}
		} else {
			d.logger.Warnw("Ignoring unreadable info.json", "path", infoPath, "error", err)
		}
	}

	d.logger.Infow("Download complete",
		"title", video.Title,
		"path", path,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return video, nil
}

func (d *Downloader) downloadArgs(source, dir string) []string {
	args := []string{}
	if d.format != "" {
		args = append(args, "-f", d.format)
	}
	args = append(args,
		"--merge-output-format", "mp4",
		"--write-info-json",
		"--no-playlist",
		"-o", filepath.Join(dir, BaseName+".%(ext)s"),
	)
	args = append(args, d.cookieArgs()...)
	return append(args, source)
}

func (d *Downloader) cookieArgs() []string {
	if d.cookies == "" {
		return nil
	}
	return []string{"--cookies", d.cookies}
}

// parseInfo reads the fields we need from yt-dlp's JSON metadata.
func parseInfo(data []byte) (*Video, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid yt-dlp metadata")
	}
	info := gjson.ParseBytes(data)
	title := info.Get("title").String()
	if title == "" {
		title = info.Get("fulltitle").String()
	}
	uploader := info.Get("uploader").String()
	if uploader == "" {
		uploader = info.Get("channel").String()
	}
	return &Video{
		ID:         info.Get("id").String(),
		Title:      title,
		Uploader:   uploader,
		Duration:   time.Duration(info.Get("duration").Float() * float64(time.Second)),
		WebpageURL: info.Get("webpage_url").String(),
	}, nil
}

// findOutput picks the merged video yt-dlp left behind, preferring mp4.
func findOutput(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, BaseName+".*"))
	if err != nil {
		return "", fmt.Errorf("failed to list downloads: %w", err)
	}
	var fallback string
	for _, m := range matches {
		switch {
		case strings.HasSuffix(m, ".info.json"), strings.HasSuffix(m, ".part"), strings.HasSuffix(m, ".ytdl"):
			continue
		case strings.EqualFold(filepath.Ext(m), ".mp4"):
			return m, nil
		case fallback == "":
			fallback = m
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("yt-dlp produced no video in %s", dir)
	}
	return fallback, nil
}

func describeLocal(source string) (*Video, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("source not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source is a directory: %s", source)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	return &Video{
		Title: strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
		Path:  abs,
	}, nil
}

// importLocal hard-links source into dir, copying when a link is not
// possible (different filesystem, unsupported).
func importLocal(source, dir string) (*Video, error) {
	video, err := describeLocal(source)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dir, BaseName+strings.ToLower(filepath.Ext(source)))
	if filepath.Clean(video.Path) == filepath.Clean(target) {
		return video, nil
	}
	_ = os.Remove(target)
	if err := os.Link(video.Path, target); err != nil {
		if err := copyFile(video.Path, target); err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", source, err)
		}
	}
	video.Path = target
	return video, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, tail(stderr.String(), 5))
	}
	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
