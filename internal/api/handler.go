package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reelearn/reelearn/internal/ingest"
	"github.com/reelearn/reelearn/pkg/events"
	"github.com/reelearn/reelearn/pkg/search"
	"github.com/reelearn/reelearn/pkg/urlvalidation"
	"github.com/reelearn/reelearn/pkg/video"
)

const maxRequestBodySize = 32 << 20 // 32 MiB, transcripts can be large

// VideoStore is the video persistence the API needs.
type VideoStore interface {
	CreateVideo(ctx context.Context, v *video.Video) error
	GetVideo(ctx context.Context, id string) (*video.Video, error)
	ListVideos(ctx context.Context, limit, offset int) ([]video.Video, error)
	ListFragments(ctx context.Context, videoID string) ([]video.Fragment, error)
}

// SearchService answers queries and keeps their history.
type SearchService interface {
	Search(ctx context.Context, q search.Query) ([]search.Group, error)
	History() []search.HistoryEntry
}

// JobSubmitter schedules ingestion.
type JobSubmitter interface {
	Submit(ctx context.Context, job ingest.Job) error
}

// Emitter publishes events.
type Emitter interface {
	Emit(ctx context.Context, eventType events.EventType, videoID string, data any) error
}

// Options tunes request defaults.
type Options struct {
	MinScore     float64
	ValidateOpts []urlvalidation.Option
}

// Handler provides the REST endpoints for videos and search.
type Handler struct {
	videos    VideoStore
	search    SearchService
	jobs      JobSubmitter
	index     ingest.Indexer
	publisher Emitter
	opts      Options
}

// NewHandler creates a new API handler. index and publisher may be nil.
func NewHandler(videos VideoStore, svc SearchService, jobs JobSubmitter, index ingest.Indexer, publisher Emitter, opts Options) *Handler {
	return &Handler{
		videos:    videos,
		search:    svc,
		jobs:      jobs,
		index:     index,
		publisher: publisher,
		opts:      opts,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/videos", h.CreateVideo)
	mux.HandleFunc("GET /api/v1/videos", h.ListVideos)
	mux.HandleFunc("GET /api/v1/videos/{id}", h.GetVideo)
	mux.HandleFunc("GET /api/v1/videos/{id}/fragments", h.ListFragments)
	mux.HandleFunc("POST /api/v1/videos/{id}/reindex", h.Reindex)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/history", h.SearchHistory)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) emit(ctx context.Context, t events.EventType, videoID string, data any) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Emit(ctx, t, videoID, data); err != nil {
		slog.WarnContext(ctx, "emit event failed", slog.String("event_type", string(t)), slog.String("error", err.Error()))
	}
}

func toVideoResponse(v *video.Video) VideoResponse {
	tags := []string(v.Tags)
	if tags == nil {
		tags = []string{}
	}
	return VideoResponse{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Source:      v.Source,
		Tags:        tags,
		Status:      string(v.Status),
		Error:       v.Error,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
		ModifiedAt:  v.ModifiedAt.Format(time.RFC3339),
	}
}

func toFragmentResponse(f *video.Fragment) FragmentResponse {
	return FragmentResponse{
		ID:               f.ID,
		Position:         f.Position,
		Start:            f.Start,
		End:              f.End,
		Text:             f.Text,
		Sentences:        []string(f.Sentences),
		Language:         f.Language,
		Tags:             []string(f.Tags),
		MediaReference:   f.MediaReference,
		SpeechConfidence: f.SpeechConfidence,
		NoSpeechProb:     f.NoSpeechProb,
	}
}

// CreateVideo handles POST /api/v1/videos
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if (req.SourceURL == "") == (req.SourcePath == "") {
		writeError(w, http.StatusBadRequest, "exactly one of source_url and source_path is required")
		return
	}

	source := req.SourcePath
	if req.SourceURL != "" {
		if err := urlvalidation.ValidateSourceURL(req.SourceURL, h.opts.ValidateOpts...); err != nil {
			writeError(w, http.StatusBadRequest, "invalid source URL: "+err.Error())
			return
		}
		source = req.SourceURL
	} else if urlvalidation.IsRemote(source) {
		writeError(w, http.StatusBadRequest, "source_path must be a path; use source_url for URLs")
		return
	}

	for i, s := range req.Segments {
		if s.End <= s.Start {
			writeError(w, http.StatusBadRequest, "segment "+strconv.Itoa(i)+": end must be after start")
			return
		}
	}

	v := &video.Video{
		Name:        req.Name,
		Description: req.Description,
		Source:      source,
		Tags:        video.TagsJSON(req.Tags),
		Status:      video.StatusPending,
	}
	if err := h.videos.CreateVideo(r.Context(), v); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create video")
		return
	}
	h.emit(r.Context(), events.VideoCreated, v.ID, events.VideoCreatedData{Name: v.Name, Source: v.Source})

	job := ingest.Job{VideoID: v.ID, Source: source, Tags: req.Tags, Segments: req.Segments}
	if err := h.jobs.Submit(r.Context(), job); err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to schedule processing")
		return
	}

	writeJSON(w, http.StatusAccepted, toVideoResponse(v))
}

// ListVideos handles GET /api/v1/videos
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 500 || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit or offset")
		return
	}

	videos, err := h.videos.ListVideos(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	resp := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		resp = append(resp, toVideoResponse(&videos[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetVideo handles GET /api/v1/videos/{id}
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := h.lookupVideo(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(v))
}

// ListFragments handles GET /api/v1/videos/{id}/fragments
func (h *Handler) ListFragments(w http.ResponseWriter, r *http.Request) {
	v, ok := h.lookupVideo(w, r)
	if !ok {
		return
	}
	frags, err := h.videos.ListFragments(r.Context(), v.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list fragments")
		return
	}
	resp := make([]FragmentResponse, 0, len(frags))
	for i := range frags {
		resp = append(resp, toFragmentResponse(&frags[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reindex handles POST /api/v1/videos/{id}/reindex
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		writeError(w, http.StatusServiceUnavailable, "search index not configured")
		return
	}
	v, ok := h.lookupVideo(w, r)
	if !ok {
		return
	}
	frags, err := h.videos.ListFragments(r.Context(), v.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list fragments")
		return
	}
	docs := make([]search.Document, 0, len(frags))
	for _, f := range frags {
		docs = append(docs, video.ToDocument(f))
	}
	if err := h.index.IndexFragments(r.Context(), docs); err != nil {
		slog.ErrorContext(r.Context(), "reindex failed", slog.String("video_id", v.ID), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to index fragments")
		return
	}
	h.emit(r.Context(), events.FragmentsIndexed, v.ID, events.FragmentsIndexedData{Count: len(docs)})
	writeJSON(w, http.StatusOK, ReindexResponse{Indexed: len(docs)})
}

// Search handles GET /api/v1/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Text:            strings.TrimSpace(r.URL.Query().Get("query")),
		Tags:            queryList(r, "tags"),
		MinScore:        h.opts.MinScore,
		ResultsPerVideo: queryInt(r, "results_per_video", 0),
	}
	if q.Text == "" && len(q.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "query or tags required")
		return
	}

	var err error
	if raw := r.URL.Query().Get("exact"); raw != "" {
		if q.Exact, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid exact flag")
			return
		}
	}
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		if q.MinScore, err = strconv.ParseFloat(raw, 64); err != nil || q.MinScore < 0 {
			writeError(w, http.StatusBadRequest, "invalid min_score")
			return
		}
	}
	if q.ResultsPerVideo < 0 {
		writeError(w, http.StatusBadRequest, "invalid results_per_video")
		return
	}

	groups, err := h.search.Search(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "search failed", slog.String("query", q.Text), slog.String("error", err.Error()))
		if errors.Is(err, search.ErrIndex) {
			writeError(w, http.StatusBadGateway, "search index unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	h.emit(r.Context(), events.SearchExecuted, "", q)
	writeJSON(w, http.StatusOK, SearchResponse{Query: q.Text, Videos: groups, Total: len(groups)})
}

// SearchHistory handles GET /api/v1/search/history
func (h *Handler) SearchHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.search.History())
}

func (h *Handler) lookupVideo(w http.ResponseWriter, r *http.Request) (*video.Video, bool) {
	v, err := h.videos.GetVideo(r.Context(), r.PathValue("id"))
	if errors.Is(err, video.ErrNotFound) {
		writeError(w, http.StatusNotFound, "video not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load video")
		return nil, false
	}
	return v, true
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// queryList accepts both repeated keys and comma-separated values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
