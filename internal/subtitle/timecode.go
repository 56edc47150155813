package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Accepts both the SRT comma and the VTT dot, with optional hours and
// 1-3 fractional digits. Whisper and hand-edited files vary on all three.
var cueTimeRegex = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2})[,.](\d{1,3})$`)

// ParseSRTTime parses HH:MM:SS,mmm. MM:SS.mmm and a dot separator are also
// accepted.
func ParseSRTTime(s string) (time.Duration, error) {
	m := cueTimeRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	h := 0
	if m[1] != "" {
		h, _ = strconv.Atoi(m[1])
	}
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if mins > 59 || sec > 59 {
		return 0, fmt.Errorf("malformed timestamp %q: minutes and seconds must be below 60", s)
	}
	frac := m[4]
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.Atoi(frac)

	return time.Duration(h)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatASSTime renders H:MM:SS.cc. Sub-centisecond precision is truncated.
func FormatASSTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		cs/360000, (cs/6000)%60, (cs/100)%60, cs%100)
}

// ParseASSTime parses H:MM:SS.cc.
func ParseASSTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed ASS timestamp %q", s)
	}
	secParts := strings.SplitN(parts[2], ".", 2)
	if len(secParts) != 2 {
		return 0, fmt.Errorf("malformed ASS timestamp %q", s)
	}
	nums := make([]int, 4)
	for i, p := range []string{parts[0], parts[1], secParts[0], secParts[1]} {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("malformed ASS timestamp %q", s)
		}
		nums[i] = n
	}
	frac := secParts[1]
	cs := nums[3]
	if len(frac) == 1 {
		cs *= 10
	} else if len(frac) > 2 {
		cs, _ = strconv.Atoi(frac[:2])
	}

	return time.Duration(nums[0])*time.Hour +
		time.Duration(nums[1])*time.Minute +
		time.Duration(nums[2])*time.Second +
		time.Duration(cs)*10*time.Millisecond, nil
}

func formatSRTTime(d time.Duration) string {
	return formatCueTime(d, ',')
}

func formatVTTTime(d time.Duration) string {
	return formatCueTime(d, '.')
}

func formatCueTime(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		ms/3600000, (ms/60000)%60, (ms/1000)%60, sep, ms%1000)
}
