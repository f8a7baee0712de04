package fragment

import (
	"errors"
	"fmt"
)

// Language is an ISO 639-1 style language code such as "en" or "ru".
type Language string

// ErrInvalidSegment is returned when the input to Build breaks the segment
// ordering or timing invariants.
var ErrInvalidSegment = errors.New("invalid segment")

// RawSegment is one timestamped unit of speech produced by the ASR backend.
// Times are in seconds from the start of the video.
type RawSegment struct {
	Start            float64  `json:"start"`
	End              float64  `json:"end"`
	Text             string   `json:"text"`
	SpeechConfidence *float64 `json:"speech_confidence,omitempty"`
	NoSpeechProb     *float64 `json:"no_speech_prob,omitempty"`
}

// Duration returns End - Start.
func (s RawSegment) Duration() float64 { return s.End - s.Start }

// Segment is a RawSegment annotated with its detected language.
type Segment struct {
	RawSegment
	Language Language `json:"language"`
}

// VideoFragment is a bounded, single-language span of a video that is cut,
// stored and indexed as one unit.
type VideoFragment struct {
	Start            float64  `json:"start"`
	End              float64  `json:"end"`
	Text             string   `json:"text"`
	Sentences        []string `json:"sentences"`
	Language         Language `json:"language"`
	Tags             []string `json:"tags"`
	MediaReference   string   `json:"media_reference,omitempty"`
	SpeechConfidence float64  `json:"speech_confidence"`
	NoSpeechProb     float64  `json:"no_speech_prob"`
}

// Duration returns End - Start.
func (f VideoFragment) Duration() float64 { return f.End - f.Start }

// Config holds the boundary engine thresholds. Durations are in seconds.
type Config struct {
	MinDuration     float64
	MaxDuration     float64
	OptimalDuration float64
	MaxSentences    int

	// MaxGap closes a fragment when the silence before the next segment is
	// longer than this. Zero disables the gap rule.
	MaxGap float64
	// GapBridge is the larger gap tolerance used while the open fragment is
	// still shorter than MinDuration.
	GapBridge float64

	// CoherenceThreshold enables the lexical pre-merge of adjacent segments
	// when greater than zero.
	CoherenceThreshold float64
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MinDuration:     10,
		MaxDuration:     30,
		OptimalDuration: 20,
		MaxSentences:    2,
		GapBridge:       5,
	}
}

// Validate reports whether the thresholds are usable.
func (c Config) Validate() error {
	switch {
	case c.MinDuration < 0:
		return fmt.Errorf("min duration must not be negative, got %v", c.MinDuration)
	case c.OptimalDuration <= 0:
		return fmt.Errorf("optimal duration must be positive, got %v", c.OptimalDuration)
	case c.MaxDuration < c.OptimalDuration:
		return fmt.Errorf("max duration %v is below optimal duration %v", c.MaxDuration, c.OptimalDuration)
	case c.MinDuration > c.MaxDuration:
		return fmt.Errorf("min duration %v exceeds max duration %v", c.MinDuration, c.MaxDuration)
	case c.MaxSentences < 1:
		return fmt.Errorf("max sentences must be at least 1, got %d", c.MaxSentences)
	case c.MaxGap < 0 || c.GapBridge < 0:
		return fmt.Errorf("gap thresholds must not be negative")
	case c.CoherenceThreshold < 0 || c.CoherenceThreshold > 1:
		return fmt.Errorf("coherence threshold must be within [0,1], got %v", c.CoherenceThreshold)
	}
	return nil
}
