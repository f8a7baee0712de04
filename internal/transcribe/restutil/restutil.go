package restutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClient is used when callers pass a nil client. Transcription of a
// long recording can take minutes.
var DefaultClient = &http.Client{Timeout: 10 * time.Minute}

// DoJSON sends a request with a raw body and decodes the JSON response into
// dest.
func DoJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body io.Reader, dest any) error {
	rc, err := DoRaw(ctx, client, method, url, headers, body)
	if err != nil {
		return err
	}
	defer rc.Close()

	if dest != nil {
		if err := json.NewDecoder(rc).Decode(dest); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// DoRaw sends a request with raw body and returns the response body.
func DoRaw(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body io.Reader) (io.ReadCloser, error) {
	if client == nil {
		client = DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bytes.TrimSpace(respBody)))
	}

	return resp.Body, nil
}
