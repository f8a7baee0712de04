package fragment

import (
	"strings"
	"unicode"
)

// mergeCoherent joins adjacent same-language segments whose word sets
// overlap by at least threshold (Jaccard), as long as the joined span stays
// within maxDuration and fits accepts the joined segment. A nil fits accepts
// every join.
func mergeCoherent(segs []Segment, threshold, maxDuration float64, fits func(Segment) bool) []Segment {
	if threshold <= 0 || len(segs) < 2 {
		return segs
	}

	out := make([]Segment, 0, len(segs))
	cur := segs[0]
	for _, next := range segs[1:] {
		if next.Language == cur.Language &&
			next.End-cur.Start <= maxDuration &&
			jaccard(wordSet(cur.Text), wordSet(next.Text)) >= threshold {
			joined := joinSegments(cur, next)
			if fits == nil || fits(joined) {
				cur = joined
				continue
			}
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

func joinSegments(a, b Segment) Segment {
	joined := a
	joined.End = b.End
	joined.Text = strings.TrimSpace(a.Text) + " " + strings.TrimSpace(b.Text)
	joined.SpeechConfidence = meanPtr(a.SpeechConfidence, b.SpeechConfidence)
	joined.NoSpeechProb = meanPtr(a.NoSpeechProb, b.NoSpeechProb)
	return joined
}

func meanPtr(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	m := (*a + *b) / 2
	return &m
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
