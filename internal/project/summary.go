package project

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed summary.md.tmpl
var summaryTemplate string

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"duration": func(seconds float64) string {
		return (time.Duration(seconds) * time.Second).String()
	},
}).Parse(summaryTemplate))

// FileInfo is one produced file listed in the summary.
type FileInfo struct {
	Path  string
	Size  string
	Bytes int64
}

// Files lists everything under subtitles/ and final/, sorted by path.
func (p *Project) Files() ([]FileInfo, error) {
	var files []FileInfo
	for _, sub := range []string{SubtitlesDir, FinalDir} {
		root := filepath.Join(p.Dir, sub)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(p.Dir, path)
			files = append(files, FileInfo{
				Path:  filepath.ToSlash(rel),
				Size:  humanize.Bytes(uint64(info.Size())),
				Bytes: info.Size(),
			})
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to list %s: %w", sub, err)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// WriteSummary renders workflow_summary.md and returns its path.
func (p *Project) WriteSummary() (string, error) {
	files, err := p.Files()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	err = summaryTmpl.Execute(&b, struct {
		*Project
		Outputs []FileInfo
	}{p, files})
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}

	path := p.Path(KindSummary)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
