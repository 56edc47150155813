package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	EnvFFmpegPath  = "BILISUB_FFMPEG_PATH"
	EnvFFprobePath = "BILISUB_FFPROBE_PATH"

	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure finds ffmpeg and ffprobe once per process. The environment wins,
// then PATH, then a copy cached under the user cache dir, downloading it
// on first use.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = newLocator().ensure()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// Locate reports where ffmpeg and ffprobe resolve from the environment,
// PATH or the download cache, without downloading. Unresolved entries are
// empty.
func Locate() BinaryPaths {
	return newLocator().locate()
}

type locator struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	cacheDir func() (string, error)
	download func(tool, assetName, installDir string) error
	goos     string
	goarch   string
}

func newLocator() locator {
	return locator{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		cacheDir: os.UserCacheDir,
		download: downloadAndExtract,
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
	}
}

func (l locator) installDir() string {
	cacheDir, err := l.cacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "bilisub", "ffmpeg", ffmpegReleaseVersion, l.goos, l.goarch)
}

func (l locator) cachedPath(tool string) string {
	return filepath.Join(l.installDir(), tool+executableSuffix(l.goos))
}

func (l locator) resolve(tool, env string) string {
	if p := l.getenv(env); p != "" {
		return p
	}
	if found, err := l.lookPath(tool); err == nil {
		return found
	}
	if cached := l.cachedPath(tool); fileExists(cached) {
		return cached
	}
	return ""
}

func (l locator) locate() BinaryPaths {
	return BinaryPaths{
		FFmpeg:  l.resolve("ffmpeg", EnvFFmpegPath),
		FFprobe: l.resolve("ffprobe", EnvFFprobePath),
	}
}

// ensure resolves both binaries and downloads whichever is still missing.
// ffbinaries ships ffmpeg and ffprobe as separate archives.
func (l locator) ensure() (BinaryPaths, error) {
	paths := l.locate()
	for _, tool := range []struct {
		name string
		path *string
	}{
		{"ffmpeg", &paths.FFmpeg},
		{"ffprobe", &paths.FFprobe},
	} {
		if *tool.path != "" {
			continue
		}
		installed, err := l.install(tool.name)
		if err != nil {
			return BinaryPaths{}, err
		}
		*tool.path = installed
	}
	return paths, nil
}

func (l locator) install(tool string) (string, error) {
	assetName, err := assetForPlatform(tool, l.goos, l.goarch)
	if err != nil {
		return "", err
	}
	installDir := l.installDir()
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	cached := l.cachedPath(tool)
	if !fileExists(cached) {
		if err := l.download(tool, assetName, installDir); err != nil {
			return "", err
		}
		if !fileExists(cached) {
			return "", fmt.Errorf("%s not found after extracting %s", tool, assetName)
		}
	}
	if l.goos != "windows" {
		if err := os.Chmod(cached, 0o755); err != nil {
			return "", fmt.Errorf("chmod %s: %w", tool, err)
		}
	}
	return cached, nil
}

func assetForPlatform(tool, goos, goarch string) (string, error) {
	var platform string
	switch {
	case goos == "linux" && goarch == "amd64":
		platform = "linux-64"
	case goos == "linux" && goarch == "arm64":
		platform = "linux-arm-64"
	case goos == "darwin" && goarch == "amd64":
		platform = "macos-64"
	case goos == "windows" && goarch == "amd64":
		platform = "win-64"
	default:
		return "", fmt.Errorf("unsupported platform for bundled ffmpeg: %s/%s (install ffmpeg or set %s)", goos, goarch, EnvFFmpegPath)
	}
	return tool + "-" + ffmpegReleaseVersion + "-" + platform + ".zip", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
