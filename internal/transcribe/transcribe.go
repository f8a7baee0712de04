// Package transcribe turns audio into timestamped text segments.
package transcribe

import (
	"context"
	"strings"

	"github.com/reelearn/reelearn/internal/registry"
	"github.com/reelearn/reelearn/pkg/fragment"
)

// Transcriber produces speech segments for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]fragment.RawSegment, error)
}

// Backends holds the transcriber factories selected by ASR_BACKEND.
var Backends = registry.New[Transcriber]()

// New creates the named backend.
func New(name string, options map[string]string) (Transcriber, error) {
	return Backends.Create(name, options)
}

// whisperSegment is a segment as reported by Whisper-style verbose JSON.
type whisperSegment struct {
	Start        float64  `json:"start"`
	End          float64  `json:"end"`
	Text         string   `json:"text"`
	NoSpeechProb *float64 `json:"no_speech_prob"`
}

// toRawSegments converts whisper segments, skipping blank or empty-range
// ones. Speech confidence is derived as 1 - no_speech_prob.
func toRawSegments(in []whisperSegment) []fragment.RawSegment {
	out := make([]fragment.RawSegment, 0, len(in))
	for _, s := range in {
		text := strings.TrimSpace(s.Text)
		if text == "" || s.End <= s.Start {
			continue
		}
		seg := fragment.RawSegment{Start: s.Start, End: s.End, Text: text}
		if s.NoSpeechProb != nil {
			p := *s.NoSpeechProb
			conf := 1 - p
			seg.NoSpeechProb = &p
			seg.SpeechConfidence = &conf
		}
		out = append(out, seg)
	}
	return out
}

func option(options map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := options[k]; v != "" {
			return v
		}
	}
	return ""
}
