package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/forPelevin/vidcap/internal/types"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm. The value is truncated to
// whole milliseconds, never rounded, so 1.9995 becomes 00:00:01,999. Hours
// are not capped at two digits. Negative and non-finite inputs render as zero.
func FormatTimestamp(sec float64) string {
	if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		sec = 0
	}
	// the epsilon absorbs float error on integer millisecond inputs such as 2.3
	total := int64(math.Floor(sec*1000 + 1e-6))
	h := total / 3600000
	m := total / 60000 % 60
	s := total / 1000 % 60
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp is the inverse of FormatTimestamp, exact to the millisecond.
// A period is accepted in place of the comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	h, errH := strconv.Atoi(hms[0])
	m, errM := strconv.Atoi(hms[1])
	s, errS := strconv.Atoi(hms[2])
	ms, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

// RenderSRT emits one block per segment, numbered from 1 in input order.
// Segments with empty text still produce a block.
func RenderSRT(segments []types.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteString("\n")
		b.WriteString(seg.CleanText())
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderTranscript joins the trimmed text of every segment with one space.
func RenderTranscript(segments []types.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.CleanText())
	}
	return strings.Join(parts, " ")
}

func WriteSRT(path string, segments []types.Segment) error {
	if err := os.WriteFile(path, []byte(RenderSRT(segments)), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}

func WriteTranscript(path string, segments []types.Segment) error {
	if err := os.WriteFile(path, []byte(RenderTranscript(segments)), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
