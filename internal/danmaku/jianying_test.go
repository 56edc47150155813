package danmaku

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func TestWriteJianyingDraft(t *testing.T) {
	records := []Record{
		{Time: 1500, Text: "来了来了", Mode: 1, Color: "16777215", FontSize: 25},
		{Time: 9000, Text: "哈哈哈", Mode: 5, Color: "16711680", FontSize: 30},
		{Time: 12000, Text: "after the end", Mode: 1, Color: "0", FontSize: 25},
	}
	path := filepath.Join(t.TempDir(), "jianying", JianyingDraftFile)
	err := WriteJianyingDraft(path, records, JianyingOptions{
		VideoPath: "/videos/clip.mp4",
		Duration:  10 * time.Second,
		Width:     1920,
		Height:    1080,
		Now:       time.Unix(1700000000, 0),
		NewID:     sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("WriteJianyingDraft: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var draft jyDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		t.Fatalf("draft is not valid JSON: %v", err)
	}

	if draft.ID != "id-1" || draft.DraftID != draft.ID {
		t.Errorf("draft ids = %q/%q", draft.ID, draft.DraftID)
	}
	if draft.Duration != 10_000_000 || draft.CreateTime != 1700000000_000_000 {
		t.Errorf("duration=%d create_time=%d", draft.Duration, draft.CreateTime)
	}
	if c := draft.Content.Canvas; c.Width != 1920 || c.Height != 1080 || c.Ratio != "16:9" {
		t.Errorf("canvas = %+v", c)
	}
	if draft.Resolution != "1920*1080" {
		t.Errorf("resolution = %s", draft.Resolution)
	}

	tracks := draft.Content.Tracks
	if len(tracks) != 2 || tracks[0].Type != "video" || tracks[1].Type != "text" {
		t.Fatalf("tracks = %+v", tracks)
	}
	if seg := tracks[0].Segments[0]; seg.MaterialID != draft.Content.Materials.Videos[0].ID || seg.TargetTimerange.Duration != 10_000_000 {
		t.Errorf("video segment = %+v", seg)
	}

	texts := tracks[1].Segments
	if len(texts) != 2 || len(draft.Content.Materials.Texts) != 2 {
		t.Fatalf("comments past the video end should be dropped: %d segments", len(texts))
	}
	tests := []struct {
		start, length int64
		animation     string
		color         string
	}{
		{1_500_000, 3_000_000, "scroll_right", "#ffffff"},
		{9_000_000, 1_000_000, "fade_in", "#ff0000"},
	}
	for i, tt := range tests {
		seg := texts[i]
		if seg.TargetTimerange.Start != tt.start || seg.TargetTimerange.Duration != tt.length {
			t.Errorf("segment %d range = %+v", i, seg.TargetTimerange)
		}
		if seg.Animations[0].Type != tt.animation || seg.RenderIndex != i+1 {
			t.Errorf("segment %d animation=%s render_index=%d", i, seg.Animations[0].Type, seg.RenderIndex)
		}
		text := draft.Content.Materials.Texts[i]
		if text.ID != seg.MaterialID || text.Color != tt.color || text.Text != records[i].Text {
			t.Errorf("text material %d = %+v", i, text)
		}
	}
}

func TestBuildJianyingDraftErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		opts    JianyingOptions
	}{
		{"no video", nil, JianyingOptions{Duration: time.Second}},
		{"no duration", nil, JianyingOptions{VideoPath: "a.mp4"}},
		{"bad color", []Record{{Time: 0, Text: "x", Color: "red"}}, JianyingOptions{VideoPath: "a.mp4", Duration: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildJianyingDraft(tt.records, tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
