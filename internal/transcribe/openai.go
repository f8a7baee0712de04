package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/reelearn/reelearn/internal/transcribe/restutil"
	"github.com/reelearn/reelearn/pkg/fragment"
)

func init() {
	Backends.Register("openai", func(options map[string]string) (Transcriber, error) {
		apiKey := option(options, "openai_api_key", "api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key required (set OPENAI_API_KEY)")
		}
		baseURL := option(options, "openai_base_url", "base_url")
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := option(options, "model")
		if model == "" {
			model = "whisper-1"
		}
		return &OpenAI{
			apiKey:   apiKey,
			baseURL:  strings.TrimRight(baseURL, "/"),
			model:    model,
			language: options["language"],
		}, nil
	})
}

// OpenAI transcribes through an OpenAI-compatible /audio/transcriptions
// endpoint with verbose_json output.
type OpenAI struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	client   *http.Client
}

func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) ([]fragment.RawSegment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai ASR: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("openai ASR: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("openai ASR: write form file: %w", err)
	}
	_ = writer.WriteField("model", o.model)
	_ = writer.WriteField("response_format", "verbose_json")
	_ = writer.WriteField("timestamp_granularities[]", "segment")
	if o.language != "" {
		_ = writer.WriteField("language", o.language)
	}
	writer.Close()

	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
		"Content-Type":  writer.FormDataContentType(),
	}

	var resp struct {
		Text     string           `json:"text"`
		Segments []whisperSegment `json:"segments"`
	}
	apiURL := o.baseURL + "/audio/transcriptions"
	if err := restutil.DoJSON(ctx, o.client, http.MethodPost, apiURL, headers, &body, &resp); err != nil {
		return nil, fmt.Errorf("openai ASR: %w", err)
	}

	return toRawSegments(resp.Segments), nil
}
