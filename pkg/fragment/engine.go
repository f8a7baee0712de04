package fragment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Engine turns language-annotated ASR segments into fragments.
type Engine struct {
	cfg      Config
	splitter *Splitter
}

// NewEngine creates an engine. The splitter is also used to count sentences
// while fragments are assembled.
func NewEngine(cfg Config, splitter *Splitter) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fragment config: %w", err)
	}
	if splitter == nil {
		splitter = NewSplitter(nil, nil)
	}
	return &Engine{cfg: cfg, splitter: splitter}, nil
}

// Config returns the engine thresholds.
func (e *Engine) Config() Config { return e.cfg }

// Build merges and splits segments into time-ordered fragments. Segments must
// be in time order and must not overlap. Segments with blank text are
// dropped first. Empty input yields no fragments and no error.
func (e *Engine) Build(ctx context.Context, segments []Segment) ([]VideoFragment, error) {
	segs, err := prepare(segments)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, nil
	}

	expanded := make([]Segment, 0, len(segs))
	for _, s := range segs {
		expanded = append(expanded, splitLong(ctx, s, e.cfg.MaxDuration, e.cfg.OptimalDuration)...)
	}
	expanded = mergeCoherent(expanded, e.cfg.CoherenceThreshold, e.cfg.MaxDuration, func(s Segment) bool {
		return len(e.splitter.Split(ctx, s.Text, s.Language)) <= e.cfg.MaxSentences
	})

	var fragments []VideoFragment
	acc := newAccumulator(expanded[0])
	for _, next := range expanded[1:] {
		if reason, ok := e.boundary(ctx, acc, next); ok {
			slog.DebugContext(ctx, "fragment boundary",
				slog.String("rule", reason),
				slog.Float64("at", next.Start))
			fragments = append(fragments, e.emit(ctx, acc))
			acc = newAccumulator(next)
			continue
		}
		acc.add(next)
	}
	fragments = append(fragments, e.emit(ctx, acc))

	return fragments, nil
}

func (e *Engine) boundary(ctx context.Context, acc *accumulator, next Segment) (string, bool) {
	for _, r := range boundaryRules {
		if r.closes(ctx, e, acc, next) {
			return r.name, true
		}
	}
	return "", false
}

func (e *Engine) emit(ctx context.Context, acc *accumulator) VideoFragment {
	text := acc.text()
	return VideoFragment{
		Start:            acc.start,
		End:              acc.end,
		Text:             text,
		Sentences:        e.splitter.Split(ctx, text, acc.language),
		Language:         acc.language,
		Tags:             []string{},
		SpeechConfidence: acc.speechConfidence(),
		NoSpeechProb:     acc.noSpeechProb(),
	}
}

// prepare drops blank segments and checks timing and ordering.
func prepare(segments []Segment) ([]Segment, error) {
	out := make([]Segment, 0, len(segments))
	for i, s := range segments {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		if !(s.End > s.Start) {
			return nil, fmt.Errorf("%w: segment %d ends at %v, not after its start %v",
				ErrInvalidSegment, i, s.End, s.Start)
		}
		if n := len(out); n > 0 && s.Start < out[n-1].End {
			return nil, fmt.Errorf("%w: segment %d starts at %v, before the previous segment ends at %v",
				ErrInvalidSegment, i, s.Start, out[n-1].End)
		}
		out = append(out, s)
	}
	return out, nil
}
