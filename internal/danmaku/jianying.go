package danmaku

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// JianyingDraftFile is the file name JianYing expects inside a draft folder.
	JianyingDraftFile = "draft_content.json"

	jianyingVersion = "12.8.0"
	jianyingFPS     = 30.0
)

// JianyingOptions describes the video the comments are laid over.
type JianyingOptions struct {
	VideoPath string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	// Display is how long each comment stays on screen. Defaults to 3s.
	Display time.Duration
	Name    string
	Now     time.Time
	// NewID generates material and segment ids. Defaults to uuid.NewString.
	NewID func() string
}

func (o *JianyingOptions) defaults() {
	if o.Display <= 0 {
		o.Display = 3 * time.Second
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 1920, 1080
	}
	if o.FrameRate <= 0 {
		o.FrameRate = jianyingFPS
	}
	if o.Name == "" {
		o.Name = "bilisub danmaku"
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
}

// All times in a draft are microseconds.
type jyRange struct {
	Start    int64 `json:"start"`
	Duration int64 `json:"duration"`
}

type jyCanvas struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ratio  string `json:"ratio"`
}

type jyVideo struct {
	ID       string  `json:"id"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Duration int64   `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
}

type jyText struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	FontSize  int    `json:"font_size"`
	Color     string `json:"color"`
	Alignment string `json:"alignment"`
}

type jyAnimation struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Duration int64  `json:"duration"`
}

type jySegment struct {
	ID                string        `json:"id"`
	MaterialID        string        `json:"material_id"`
	SourceTimerange   jyRange       `json:"source_timerange"`
	TargetTimerange   jyRange       `json:"target_timerange"`
	ExtraMaterialRefs []string      `json:"extra_material_refs"`
	Animations        []jyAnimation `json:"animations,omitempty"`
	RenderIndex       int           `json:"render_index"`
	Speed             float64       `json:"speed,omitempty"`
	Volume            float64       `json:"volume,omitempty"`
	Visible           bool          `json:"visible"`
}

type jyTrack struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Attribute int         `json:"attribute"`
	Flag      int         `json:"flag"`
	Segments  []jySegment `json:"segments"`
}

type jyMaterials struct {
	Texts   []jyText  `json:"texts"`
	Videos  []jyVideo `json:"videos"`
	Audios  []any     `json:"audios"`
	Effects []any     `json:"effects"`
}

type jyContent struct {
	Canvas     jyCanvas    `json:"canvas_config"`
	ColorSpace int         `json:"color_space"`
	FPS        float64     `json:"fps"`
	Materials  jyMaterials `json:"materials"`
	Tracks     []jyTrack   `json:"tracks"`
}

type jyDraft struct {
	Content    jyContent `json:"content"`
	CreateTime int64     `json:"create_time"`
	DraftID    string    `json:"draft_id"`
	DraftName  string    `json:"draft_name"`
	Duration   int64     `json:"duration"`
	FPS        float64   `json:"fps"`
	ID         string    `json:"id"`
	NewVersion string    `json:"new_version"`
	Platform   string    `json:"platform"`
	Resolution string    `json:"resolution"`
	UpdateTime int64     `json:"update_time"`
	Version    int       `json:"version"`
}

// BuildJianyingDraft lays the video on one track and every comment as a
// text segment on a second track. Comments are clipped at the video end.
func BuildJianyingDraft(records []Record, opts JianyingOptions) ([]byte, error) {
	opts.defaults()
	if opts.VideoPath == "" {
		return nil, fmt.Errorf("jianying draft needs a video path")
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("jianying draft needs a positive video duration")
	}

	total := opts.Duration.Microseconds()
	display := opts.Display.Microseconds()
	draftID := opts.NewID()
	created := opts.Now.UnixMicro()

	videoMaterial := jyVideo{
		ID:       opts.NewID(),
		Path:     opts.VideoPath,
		Type:     "video",
		Duration: total,
		Width:    opts.Width,
		Height:   opts.Height,
		FPS:      opts.FrameRate,
	}
	videoTrack := jyTrack{
		ID:   opts.NewID(),
		Type: "video",
		Segments: []jySegment{{
			ID:                opts.NewID(),
			MaterialID:        videoMaterial.ID,
			SourceTimerange:   jyRange{Duration: total},
			TargetTimerange:   jyRange{Duration: total},
			ExtraMaterialRefs: []string{},
			Speed:             1,
			Volume:            1,
			Visible:           true,
		}},
	}

	texts := make([]jyText, 0, len(records))
	textTrack := jyTrack{ID: opts.NewID(), Type: "text", Segments: make([]jySegment, 0, len(records))}
	for i, r := range records {
		rgb, err := r.RGB()
		if err != nil {
			return nil, fmt.Errorf("danmaku %d: %w", i, err)
		}
		start := r.At().Microseconds()
		if start >= total {
			continue
		}
		length := min(display, total-start)

		text := jyText{
			ID:        opts.NewID(),
			Type:      "text",
			Text:      r.Text,
			FontSize:  r.FontSize,
			Color:     fmt.Sprintf("#%06x", rgb),
			Alignment: "center",
		}
		texts = append(texts, text)

		animation := "fade_in"
		if r.Mode == 1 {
			animation = "scroll_right"
		}
		textTrack.Segments = append(textTrack.Segments, jySegment{
			ID:                opts.NewID(),
			MaterialID:        text.ID,
			SourceTimerange:   jyRange{Duration: length},
			TargetTimerange:   jyRange{Start: start, Duration: length},
			ExtraMaterialRefs: []string{},
			Animations:        []jyAnimation{{ID: opts.NewID(), Type: animation, Duration: length}},
			RenderIndex:       len(textTrack.Segments) + 1,
			Visible:           true,
		})
	}

	draft := jyDraft{
		Content: jyContent{
			Canvas:     jyCanvas{Width: opts.Width, Height: opts.Height, Ratio: aspectRatio(opts.Width, opts.Height)},
			ColorSpace: 1,
			FPS:        jianyingFPS,
			Materials: jyMaterials{
				Texts:   texts,
				Videos:  []jyVideo{videoMaterial},
				Audios:  []any{},
				Effects: []any{},
			},
			Tracks: []jyTrack{videoTrack, textTrack},
		},
		CreateTime: created,
		DraftID:    draftID,
		DraftName:  opts.Name,
		Duration:   total,
		FPS:        jianyingFPS,
		ID:         draftID,
		NewVersion: jianyingVersion,
		Platform:   "mac",
		Resolution: fmt.Sprintf("%d*%d", opts.Width, opts.Height),
		UpdateTime: created,
		Version:    1,
	}

	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode jianying draft: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJianyingDraft writes the draft to path, creating its folder.
func WriteJianyingDraft(path string, records []Record, opts JianyingOptions) error {
	data, err := BuildJianyingDraft(records, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write jianying draft: %w", err)
	}
	return nil
}

func aspectRatio(w, h int) string {
	a, b := w, h
	for b != 0 {
		a, b = b, a%b
	}
	return fmt.Sprintf("%d:%d", w/a, h/a)
}
