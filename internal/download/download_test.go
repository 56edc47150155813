package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/bilisub/internal/config"
)

const sampleInfo = `{
  "id": "dQw4w9WgXcQ",
  "title": "Trump's Press Conference | The Daily Show",
  "uploader": "The Daily Show",
  "duration": 612.5,
  "webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
}`

func testDownloader(runner CommandRunner) *Downloader {
	d := New(config.Download{
		Binary:         "yt-dlp",
		Format:         "best",
		TimeoutSeconds: 5,
		CookiesFile:    "/tmp/cookies.txt",
	}, nil)
	d.WithCommandRunner(runner)
	return d
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://youtu.be/x":   true,
		"HTTP://example.com/v": true,
		"video.mp4":            false,
		"/abs/https.mp4":       false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	var args []string
	d := testDownloader(func(_ context.Context, name string, a ...string) ([]byte, error) {
		args = a
		for _, f := range []string{"original_video.mp4", "original_video.info.json", "original_video.f137.mp4.part"} {
			content := "video"
			if strings.HasSuffix(f, ".json") {
				content = sampleInfo
			}
			if err := os.WriteFile(filepath.Join(dir, f), []byte(content), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	video, err := d.Download(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if video.Path != filepath.Join(dir, "original_video.mp4") {
		t.Errorf("path = %s", video.Path)
	}
	if video.Title != "Trump's Press Conference | The Daily Show" || video.Uploader != "The Daily Show" {
		t.Errorf("unexpected metadata: %+v", video)
	}
	if video.Duration != 612500*time.Millisecond {
		t.Errorf("duration = %v", video.Duration)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f best",
		"--merge-output-format mp4",
		"--write-info-json",
		"--no-playlist",
		"-o " + filepath.Join(dir, "original_video.%(ext)s"),
		"--cookies /tmp/cookies.txt",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if args[len(args)-1] != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("url should be the last argument: %v", args)
	}
}

func TestDownloadFailure(t *testing.T) {
	d := testDownloader(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("ERROR: Video unavailable")
	})
	_, err := d.Download(context.Background(), "https://youtu.be/gone", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "Video unavailable") {
		t.Fatalf("expected yt-dlp error, got %v", err)
	}

	d = testDownloader(func(context.Context, string, ...string) ([]byte, error) { return nil, nil })
	if _, err := d.Download(context.Background(), "https://youtu.be/x", t.TempDir()); err == nil {
		t.Fatal("expected error when nothing was written")
	}
}

func TestMetadata(t *testing.T) {
	d := testDownloader(func(_ context.Context, _ string, a ...string) ([]byte, error) {
		if !slices.Contains(a, "--dump-json") || !slices.Contains(a, "--skip-download") {
			t.Errorf("unexpected metadata args: %v", a)
		}
		return []byte(sampleInfo), nil
	})
	video, err := d.Metadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if video.ID != "dQw4w9WgXcQ" || video.WebpageURL == "" {
		t.Errorf("unexpected metadata result: %+v", video)
	}

	bad := testDownloader(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	})
	if _, err := bad.Metadata(context.Background(), "https://youtu.be/x"); err == nil {
		t.Error("expected error for invalid metadata")
	}
}

func TestDownloadLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Late Night Clip.MOV")
	if err := os.WriteFile(src, []byte("movie"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := testDownloader(func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("yt-dlp should not run for local files")
		return nil, nil
	})

	dir := t.TempDir()
	video, err := d.Download(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if video.Title != "Late Night Clip" {
		t.Errorf("title = %q", video.Title)
	}
	if video.Path != filepath.Join(dir, "original_video.mov") {
		t.Errorf("path = %s", video.Path)
	}
	data, err := os.ReadFile(video.Path)
	if err != nil || string(data) != "movie" {
		t.Errorf("imported file = %q, %v", data, err)
	}

	if _, err := d.Download(context.Background(), filepath.Join(dir, "missing.mp4"), dir); err == nil {
		t.Error("expected error for missing file")
	}
}
