package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/bilisub/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable: %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("Missing() = %#v", missing)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Download.Binary = "/opt/yt-dlp"
	cfg.Transcribe.Provider = "openai"

	reqs := Requirements(&cfg)
	if reqs[0].Command != "/opt/yt-dlp" {
		t.Errorf("yt-dlp command = %q", reqs[0].Command)
	}
	if !reqs[3].Optional {
		t.Error("whisper should be optional with the openai provider")
	}

	cfg.Transcribe.Provider = "local"
	if Requirements(&cfg)[3].Optional {
		t.Error("whisper should be required with the local provider")
	}
}

func TestCheckBinariesUsesResolver(t *testing.T) {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: "clearly-not-present-ffmpeg", Resolve: func() string { return "/cache/ffmpeg" }},
		{Name: "FFprobe", Command: "ffprobe", Resolve: func() string { return "" }},
	}
	results := CheckBinaries(reqs)
	if !results[0].Available || results[0].Path != "/cache/ffmpeg" {
		t.Errorf("resolved binary = %#v", results[0])
	}
	if results[1].Available || !strings.Contains(results[1].Detail, "BILISUB_FFPROBE_PATH") {
		t.Errorf("unresolved binary = %#v", results[1])
	}
}

func TestRequirementsResolveFFmpegFromEnvironment(t *testing.T) {
	t.Setenv("BILISUB_FFMPEG_PATH", "/opt/tools/ffmpeg")
	cfg := config.Default()
	for _, req := range Requirements(&cfg) {
		if req.Name != "FFmpeg" {
			continue
		}
		if req.Resolve == nil || req.Resolve() != "/opt/tools/ffmpeg" {
			t.Errorf("FFmpeg did not resolve from the environment")
		}
		return
	}
	t.Fatal("no FFmpeg requirement")
}
