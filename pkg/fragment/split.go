package fragment

import (
	"context"
	"log/slog"
	"math"
	"strings"
)

// splitLong breaks a segment longer than maxDuration into
// ceil(duration/optimal) equal parts. Words are shared out in order, so each
// part gets the same share of the text as of the time. The part count never
// exceeds the word count, so a long segment with few words may still yield
// parts longer than maxDuration.
func splitLong(ctx context.Context, seg Segment, maxDuration, optimal float64) []Segment {
	d := seg.Duration()
	if d <= maxDuration || optimal <= 0 {
		return []Segment{seg}
	}

	words := strings.Fields(seg.Text)
	n := int(math.Ceil(d / optimal))
	if n > len(words) {
		n = len(words)
		if n > 0 && d/float64(n) > maxDuration {
			slog.DebugContext(ctx, "segment has too few words to split under max duration",
				slog.Float64("start", seg.Start),
				slog.Float64("duration", d),
				slog.Int("words", len(words)))
		}
	}
	if n <= 1 {
		return []Segment{seg}
	}

	step := d / float64(n)
	parts := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		lo := i * len(words) / n
		hi := (i + 1) * len(words) / n

		part := seg
		part.Start = seg.Start + float64(i)*step
		part.End = seg.Start + float64(i+1)*step
		if i == n-1 {
			part.End = seg.End
		}
		part.Text = strings.Join(words[lo:hi], " ")
		parts = append(parts, part)
	}
	return parts
}
