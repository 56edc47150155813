package subtitle

import (
	"strings"
	"testing"
	"time"
)

func TestFormatASSTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00.00"},
		{1500 * time.Millisecond, "0:00:01.50"},
		{time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond, "1:02:03.45"},
		{59*time.Second + 999*time.Millisecond, "0:00:59.99"},
		{WatermarkEnd, "9:59:59.99"},
		{-time.Second, "0:00:00.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatASSTime(tt.in); got != tt.want {
				t.Errorf("FormatASSTime(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSRTTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:00:01,000", want: time.Second},
		{in: "01:02:03,456", want: time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond},
		{in: "00:00:01.5", want: 1500 * time.Millisecond},
		{in: "02:03,040", want: 2*time.Minute + 3*time.Second + 40*time.Millisecond},
		{in: " 00:00:02,000 ", want: 2 * time.Second},
		{in: "00:61:00,000", wantErr: true},
		{in: "1:2:3", wantErr: true},
		{in: "", wantErr: true},
		{in: "aa:bb:cc,ddd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSRTTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSRTTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSRTToASSConversion(t *testing.T) {
	d, err := ParseSRTTime("1:02:03,456")
	if err != nil {
		t.Fatalf("ParseSRTTime: %v", err)
	}
	if got := FormatASSTime(d); got != "1:02:03.45" {
		t.Errorf("got %q, want 1:02:03.45", got)
	}
}

func TestParseASSTime(t *testing.T) {
	got, err := ParseASSTime("1:02:03.4")
	if err != nil {
		t.Fatalf("ParseASSTime: %v", err)
	}
	want := time.Hour + 2*time.Minute + 3*time.Second + 400*time.Millisecond
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := ParseASSTime("0:00:01"); err == nil {
		t.Error("expected error without fractional part")
	}
}

func TestValidate(t *testing.T) {
	good := &Subtitle{Entries: []Entry{
		{StartTime: 0, EndTime: time.Second, Text: "a"},
		{StartTime: time.Second, EndTime: 2 * time.Second, Text: "b"},
	}}
	if err := Validate(good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := Validate(&Subtitle{}); err != ErrNoEntries {
		t.Errorf("expected ErrNoEntries, got %v", err)
	}

	bad := &Subtitle{Entries: []Entry{
		{StartTime: 2 * time.Second, EndTime: time.Second, Text: "inverted"},
		{StartTime: time.Second, EndTime: 3 * time.Second, Text: " "},
	}}
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"entry 1 ends", "entry 2 starts before entry 1", "entry 2 has no text"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestAdjustSpacing(t *testing.T) {
	sub := &Subtitle{Entries: []Entry{
		{StartTime: 0, EndTime: time.Second, Text: "a"},
		{StartTime: 500 * time.Millisecond, EndTime: 2 * time.Second, Text: "b"},
		{StartTime: 5 * time.Second, EndTime: 6 * time.Second, Text: "c"},
		{StartTime: 5500 * time.Millisecond, EndTime: 6 * time.Second, Text: "d"},
	}}
	moved := AdjustSpacing(sub, 2*time.Second)
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}
	if sub.Entries[1].StartTime != 2*time.Second || sub.Entries[1].Duration() != 1500*time.Millisecond {
		t.Errorf("entry b not shifted with duration kept: %+v", sub.Entries[1])
	}
	if sub.Entries[3].StartTime != 7*time.Second {
		t.Errorf("entry d start = %v, want 7s", sub.Entries[3].StartTime)
	}
	for i := 1; i < len(sub.Entries); i++ {
		if gap := sub.Entries[i].StartTime - sub.Entries[i-1].StartTime; gap < 2*time.Second {
			t.Errorf("gap %d = %v", i, gap)
		}
	}
}
