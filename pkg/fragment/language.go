package fragment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Detector guesses the language of a piece of text.
type Detector interface {
	Detect(text string) (Language, error)
}

var errUndetermined = errors.New("language could not be determined")

// WhatlangDetector detects languages with whatlanggo's trigram models.
type WhatlangDetector struct{}

// NewWhatlangDetector creates a detector.
func NewWhatlangDetector() *WhatlangDetector { return &WhatlangDetector{} }

func (d *WhatlangDetector) Detect(text string) (Language, error) {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", errUndetermined
	}
	return Language(code), nil
}

// Classifier maps text to one of the supported languages. It never fails:
// anything it cannot place is given the fallback language.
type Classifier struct {
	detector  Detector
	supported map[Language]struct{}
	fallback  Language
}

// NewClassifier creates a classifier. The fallback language is always
// considered supported.
func NewClassifier(detector Detector, supported []Language, fallback Language) *Classifier {
	set := make(map[Language]struct{}, len(supported)+1)
	for _, l := range supported {
		set[Language(strings.ToLower(string(l)))] = struct{}{}
	}
	set[fallback] = struct{}{}
	return &Classifier{detector: detector, supported: set, fallback: fallback}
}

// Fallback returns the language used when detection fails.
func (c *Classifier) Fallback() Language { return c.fallback }

// Supported reports whether lang is in the configured set.
func (c *Classifier) Supported(lang Language) bool {
	_, ok := c.supported[lang]
	return ok
}

// Detect returns the language of text.
func (c *Classifier) Detect(ctx context.Context, text string) Language {
	if c.detector == nil {
		return c.fallback
	}
	lang, err := c.detector.Detect(text)
	if err != nil {
		slog.WarnContext(ctx, "language detection failed, using fallback",
			slog.String("fallback", string(c.fallback)),
			slog.String("error", err.Error()))
		return c.fallback
	}
	lang = Language(strings.ToLower(string(lang)))
	if !c.Supported(lang) {
		slog.WarnContext(ctx, "detected unsupported language, using fallback",
			slog.String("detected", string(lang)),
			slog.String("fallback", string(c.fallback)))
		return c.fallback
	}
	return lang
}

// Annotate detects the language of every raw segment.
func (c *Classifier) Annotate(ctx context.Context, raws []RawSegment) []Segment {
	out := make([]Segment, 0, len(raws))
	for _, r := range raws {
		out = append(out, Segment{RawSegment: r, Language: c.Detect(ctx, r.Text)})
	}
	return out
}
