package ffmpeg

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// downloadAndExtract fetches the release zip for assetName into installDir
// and unpacks tool from it.
func downloadAndExtract(tool, assetName, installDir string) error {
	url := ffmpegReleaseBaseURL + "/v" + ffmpegReleaseVersion + "/" + assetName
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("download %s: %w", assetName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", assetName, resp.Status)
	}

	// the archive lands in installDir so a half-written file never leaves
	// the cache filesystem
	archive, err := os.CreateTemp(installDir, ".download-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(archive.Name())

	var dst io.Writer = archive
	if isatty.IsTerminal(os.Stderr.Fd()) {
		dst = io.MultiWriter(archive, progressbar.DefaultBytes(resp.ContentLength, "downloading "+tool))
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		archive.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := archive.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archive.Name(), installDir, tool); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

// extractArchive copies the tool entry of a release zip into installDir,
// wherever it sits inside the archive. Other entries are ignored.
func extractArchive(archivePath, installDir, tool string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		base := filepath.Base(entry.Name)
		if binaryName(base) != tool || entry.FileInfo().IsDir() {
			continue
		}
		return installEntry(entry, filepath.Join(installDir, base))
	}
	return fmt.Errorf("archive has no %s binary", tool)
}

// installEntry writes entry to dest through a temp file and a rename, so a
// concurrent bilisub never runs a partially written binary.
func installEntry(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open %s in archive: %w", entry.Name, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	if err := tmp.Chmod(0o755); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", filepath.Base(dest), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// binaryName reports which tool an archive entry holds, or "".
func binaryName(name string) string {
	switch strings.ToLower(name) {
	case "ffmpeg", "ffmpeg.exe":
		return "ffmpeg"
	case "ffprobe", "ffprobe.exe":
		return "ffprobe"
	default:
		return ""
	}
}
