package api

import (
	"github.com/reelearn/reelearn/pkg/fragment"
	"github.com/reelearn/reelearn/pkg/search"
)

// CreateVideoRequest is the request body for registering a video.
// Exactly one of SourceURL and SourcePath is required. Without segments the
// source is transcribed first.
type CreateVideoRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	SourceURL   string                `json:"source_url,omitempty"`
	SourcePath  string                `json:"source_path,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Segments    []fragment.RawSegment `json:"segments,omitempty"`
}

// VideoResponse is the API response for a video.
type VideoResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
	CreatedAt   string   `json:"created_at"`
	ModifiedAt  string   `json:"modified_at"`
}

// FragmentResponse is the API response for a stored fragment.
type FragmentResponse struct {
	ID               string   `json:"id"`
	Position         int      `json:"position"`
	Start            float64  `json:"start"`
	End              float64  `json:"end"`
	Text             string   `json:"text"`
	Sentences        []string `json:"sentences"`
	Language         string   `json:"language"`
	Tags             []string `json:"tags"`
	MediaReference   string   `json:"media_reference"`
	SpeechConfidence float64  `json:"speech_confidence"`
	NoSpeechProb     float64  `json:"no_speech_prob"`
}

// SearchResponse wraps grouped search results.
type SearchResponse struct {
	Query  string         `json:"query"`
	Videos []search.Group `json:"videos"`
	Total  int            `json:"total"`
}

// ReindexResponse reports how many fragments were pushed to the index.
type ReindexResponse struct {
	Indexed int `json:"indexed"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
