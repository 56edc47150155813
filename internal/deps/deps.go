package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mgpai22/bilisub/internal/config"
	"github.com/mgpai22/bilisub/internal/ffmpeg"
)

// Requirement is an external program the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// Resolve, when set, replaces the PATH lookup. It returns "" when the
	// binary cannot be found.
	Resolve func() string
}

// Status reports whether a requirement was found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the binaries a run with cfg needs. Whisper is only
// required when transcription runs locally.
func Requirements(cfg *config.Config) []Requirement {
	ytdlp := "yt-dlp"
	whisper := "whisper"
	localWhisper := true
	if cfg != nil {
		if cfg.Download.Binary != "" {
			ytdlp = cfg.Download.Binary
		}
		if cfg.Transcribe.WhisperBinary != "" {
			whisper = cfg.Transcribe.WhisperBinary
		}
		localWhisper = cfg.Transcribe.Provider == "local"
	}
	return []Requirement{
		{Name: "yt-dlp", Command: ytdlp, Description: "video download"},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "audio extraction and subtitle burn-in",
			Resolve:     func() string { return ffmpeg.Locate().FFmpeg },
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "media inspection",
			Resolve:     func() string { return ffmpeg.Locate().FFprobe },
		},
		{Name: "Whisper", Command: whisper, Description: "local speech recognition", Optional: !localWhisper},
	}
}

// CheckBinaries looks every requirement up on PATH, or through its
// Resolve function when it has one.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := lookup(req, cmd)
		if err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

func lookup(req Requirement, cmd string) (string, error) {
	if req.Resolve != nil {
		if path := req.Resolve(); path != "" {
			return path, nil
		}
		return "", fmt.Errorf("binary %q not found in %s, PATH or the download cache", cmd, envFor(req.Name))
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		return "", fmt.Errorf("binary %q not found", cmd)
	}
	return path, nil
}

func envFor(name string) string {
	if name == "FFprobe" {
		return ffmpeg.EnvFFprobePath
	}
	return ffmpeg.EnvFFmpegPath
}

// Missing returns the required entries that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
