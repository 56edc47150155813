package ffmpeg

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func fakeLocator(t *testing.T, env map[string]string, onPath map[string]string) (locator, *[]string) {
	t.Helper()
	cache := t.TempDir()
	var assets []string
	return locator{
		getenv: func(k string) string { return env[k] },
		lookPath: func(name string) (string, error) {
			if p, ok := onPath[name]; ok {
				return p, nil
			}
			return "", errors.New("not found")
		},
		cacheDir: func() (string, error) { return cache, nil },
		download: func(tool, assetName, installDir string) error {
			assets = append(assets, assetName)
			return os.WriteFile(filepath.Join(installDir, tool), []byte("bin"), 0o644)
		},
		goos:   "linux",
		goarch: "amd64",
	}, &assets
}

func TestLocatorPrefersEnvironment(t *testing.T) {
	l, assets := fakeLocator(t,
		map[string]string{EnvFFmpegPath: "/opt/ffmpeg", EnvFFprobePath: "/opt/ffprobe"},
		map[string]string{"ffmpeg": "/usr/bin/ffmpeg", "ffprobe": "/usr/bin/ffprobe"},
	)
	paths, err := l.ensure()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if paths.FFmpeg != "/opt/ffmpeg" || paths.FFprobe != "/opt/ffprobe" {
		t.Errorf("paths = %+v", paths)
	}
	if len(*assets) != 0 {
		t.Errorf("should not download, fetched %v", *assets)
	}
}

func TestLocatorFallsBackToPath(t *testing.T) {
	l, _ := fakeLocator(t,
		map[string]string{EnvFFmpegPath: "/opt/ffmpeg"},
		map[string]string{"ffprobe": "/usr/bin/ffprobe"},
	)
	paths, err := l.ensure()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if paths.FFmpeg != "/opt/ffmpeg" || paths.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("paths = %+v", paths)
	}
}

func TestLocatorDownloadsEachBinaryOnce(t *testing.T) {
	l, assets := fakeLocator(t, nil, nil)
	paths, err := l.ensure()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	dir := filepath.Join("bilisub", "ffmpeg", ffmpegReleaseVersion, "linux", "amd64")
	if !strings.Contains(paths.FFmpeg, dir) || filepath.Base(paths.FFprobe) != "ffprobe" {
		t.Errorf("unexpected cache paths %+v", paths)
	}
	want := []string{"ffmpeg-6.1-linux-64.zip", "ffprobe-6.1-linux-64.zip"}
	if !slices.Equal(*assets, want) {
		t.Errorf("assets = %v, want %v", *assets, want)
	}

	if _, err := l.ensure(); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(*assets) != 2 {
		t.Errorf("cached binaries downloaded again: %v", *assets)
	}
}

func TestLocatorDownloadsOnlyMissingBinary(t *testing.T) {
	l, assets := fakeLocator(t, nil, map[string]string{"ffmpeg": "/usr/bin/ffmpeg"})
	paths, err := l.ensure()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if paths.FFmpeg != "/usr/bin/ffmpeg" || filepath.Base(paths.FFprobe) != "ffprobe" {
		t.Errorf("paths = %+v", paths)
	}
	if !slices.Equal(*assets, []string{"ffprobe-6.1-linux-64.zip"}) {
		t.Errorf("assets = %v", *assets)
	}
}

func TestLocateNeverDownloads(t *testing.T) {
	l, assets := fakeLocator(t, map[string]string{EnvFFmpegPath: "/opt/ffmpeg"}, nil)
	if got := l.locate(); got.FFmpeg != "/opt/ffmpeg" || got.FFprobe != "" {
		t.Errorf("locate() = %+v", got)
	}

	cached := l.cachedPath("ffprobe")
	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cached, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := l.locate(); got.FFprobe != cached {
		t.Errorf("cached ffprobe not found: %+v", got)
	}
	if len(*assets) != 0 {
		t.Errorf("locate downloaded %v", *assets)
	}
}

func TestLocatorUnsupportedPlatform(t *testing.T) {
	l, _ := fakeLocator(t, nil, nil)
	l.goos, l.goarch = "plan9", "386"
	if _, err := l.ensure(); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

func TestLocatorFailsWhenArchiveLacksBinary(t *testing.T) {
	l, _ := fakeLocator(t, nil, nil)
	l.download = func(string, string, string) error { return nil }
	if _, err := l.ensure(); err == nil || !strings.Contains(err.Error(), "not found after extracting") {
		t.Errorf("expected extraction error, got %v", err)
	}
}

func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte(name))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "ffprobe.zip")
	writeZip(t, archive, "bundle/ffprobe", "bundle/README")

	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := extractArchive(archive, out, "ffprobe"); err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if !fileExists(filepath.Join(out, "ffprobe")) {
		t.Error("ffprobe not extracted")
	}
	if _, err := os.Stat(filepath.Join(out, "README")); !os.IsNotExist(err) {
		t.Error("unrelated files should be skipped")
	}
	if err := extractArchive(archive, out, "ffmpeg"); err == nil {
		t.Error("expected error when the archive lacks ffmpeg")
	}
}

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		tool, goos, goarch, want string
	}{
		{"ffmpeg", "linux", "amd64", "ffmpeg-6.1-linux-64.zip"},
		{"ffprobe", "linux", "arm64", "ffprobe-6.1-linux-arm-64.zip"},
		{"ffmpeg", "darwin", "amd64", "ffmpeg-6.1-macos-64.zip"},
		{"ffprobe", "windows", "amd64", "ffprobe-6.1-win-64.zip"},
	}
	for _, tt := range tests {
		got, err := assetForPlatform(tt.tool, tt.goos, tt.goarch)
		if err != nil || got != tt.want {
			t.Errorf("assetForPlatform(%s, %s, %s) = %q, %v", tt.tool, tt.goos, tt.goarch, got, err)
		}
	}
}
