package fragment

import (
	"context"
	"strings"
)

// accumulator is the fragment currently being built.
type accumulator struct {
	start    float64
	end      float64
	texts    []string
	language Language

	speechSum   float64
	speechCount int
	noSpeechSum float64
	noSpeechCnt int
}

func newAccumulator(seg Segment) *accumulator {
	a := &accumulator{start: seg.Start, language: seg.Language}
	a.add(seg)
	return a
}

func (a *accumulator) add(seg Segment) {
	a.end = seg.End
	a.texts = append(a.texts, strings.TrimSpace(seg.Text))
	if seg.SpeechConfidence != nil {
		a.speechSum += *seg.SpeechConfidence
		a.speechCount++
	}
	if seg.NoSpeechProb != nil {
		a.noSpeechSum += *seg.NoSpeechProb
		a.noSpeechCnt++
	}
}

func (a *accumulator) text() string { return strings.Join(a.texts, " ") }

func (a *accumulator) duration() float64 { return a.end - a.start }

func (a *accumulator) speechConfidence() float64 {
	if a.speechCount == 0 {
		return 0
	}
	return a.speechSum / float64(a.speechCount)
}

func (a *accumulator) noSpeechProb() float64 {
	if a.noSpeechCnt == 0 {
		return 0
	}
	return a.noSpeechSum / float64(a.noSpeechCnt)
}

// rule decides whether next must start a new fragment instead of joining acc.
type rule struct {
	name   string
	closes func(ctx context.Context, e *Engine, acc *accumulator, next Segment) bool
}

// boundaryRules are evaluated in order; the first that fires closes the
// accumulator.
var boundaryRules = []rule{
	{name: "language", closes: languageChanged},
	{name: "sentences", closes: tooManySentences},
	{name: "duration", closes: tooLong},
	{name: "gap", closes: gapTooWide},
}

func languageChanged(_ context.Context, _ *Engine, acc *accumulator, next Segment) bool {
	return next.Language != acc.language
}

func tooManySentences(ctx context.Context, e *Engine, acc *accumulator, next Segment) bool {
	merged := acc.text() + " " + strings.TrimSpace(next.Text)
	return len(e.splitter.Split(ctx, merged, acc.language)) > e.cfg.MaxSentences
}

func tooLong(_ context.Context, e *Engine, acc *accumulator, next Segment) bool {
	potential := next.End - acc.start
	if potential > e.cfg.MaxDuration {
		return true
	}
	if potential <= e.cfg.OptimalDuration {
		return false
	}
	return !continues(acc.texts[len(acc.texts)-1], next.Text)
}

func gapTooWide(_ context.Context, e *Engine, acc *accumulator, next Segment) bool {
	if e.cfg.MaxGap <= 0 {
		return false
	}
	tolerance := e.cfg.MaxGap
	if acc.duration() < e.cfg.MinDuration && e.cfg.GapBridge > tolerance {
		tolerance = e.cfg.GapBridge
	}
	return next.Start-acc.end > tolerance
}

var (
	trailingMarkers = []string{"...", "…", "-", "—", "–"}
	leadingMarkers  = []string{"...", "…"}
)

// continues reports whether the speech visibly runs on from prev into next.
func continues(prev, next string) bool {
	prev = strings.TrimSpace(prev)
	next = strings.TrimSpace(next)
	for _, m := range trailingMarkers {
		if strings.HasSuffix(prev, m) {
			return true
		}
	}
	for _, m := range leadingMarkers {
		if strings.HasPrefix(next, m) {
			return true
		}
	}
	return false
}
