package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reelearn/reelearn/pkg/fragment"
)

func init() {
	Backends.Register("whisperjson", func(options map[string]string) (Transcriber, error) {
		return &WhisperJSON{dir: options["transcript_dir"]}, nil
	})
}

// WhisperJSON reads transcripts produced offline by whisper
// (--output_format json). For audio "x.wav" it loads "x.json" from dir, or
// from the audio's own directory when dir is empty.
type WhisperJSON struct {
	dir string
}

func (w *WhisperJSON) Transcribe(ctx context.Context, audioPath string) ([]fragment.RawSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := w.dir
	if dir == "" {
		dir = filepath.Dir(audioPath)
	}
	name := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)) + ".json"

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("whisper transcript: %w", err)
	}

	var doc struct {
		Segments []whisperSegment `json:"segments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("whisper transcript %s: %w", name, err)
	}
	return toRawSegments(doc.Segments), nil
}
