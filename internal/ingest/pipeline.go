// Package ingest turns a video's transcript into stored, indexed fragments.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/reelearn/reelearn/internal/catalog"
	"github.com/reelearn/reelearn/internal/media"
	"github.com/reelearn/reelearn/internal/transcribe"
	"github.com/reelearn/reelearn/pkg/events"
	"github.com/reelearn/reelearn/pkg/fragment"
	"github.com/reelearn/reelearn/pkg/retry"
	"github.com/reelearn/reelearn/pkg/search"
	"github.com/reelearn/reelearn/pkg/video"
)

// ErrNoSegments is returned for a job without usable speech segments.
var ErrNoSegments = errors.New("no speech segments")

// Job is one video to fragment.
type Job struct {
	VideoID string `json:"video_id"`
	// Source is a local path or URL readable by ffmpeg.
	Source   string                `json:"source"`
	Tags     []string              `json:"tags,omitempty"`
	Segments []fragment.RawSegment `json:"segments,omitempty"`
}

// Clipper cuts one fragment out of the source and stores it.
type Clipper interface {
	CutAndStore(ctx context.Context, src media.Source, start, end float64) (string, error)
}

// VideoStore persists processing state and fragments.
type VideoStore interface {
	UpdateStatus(ctx context.Context, id string, status video.Status, reason string) error
	SaveFragments(ctx context.Context, videoID string, frags []fragment.VideoFragment) ([]string, error)
}

// Indexer makes stored fragments searchable.
type Indexer interface {
	IndexFragments(ctx context.Context, docs []search.Document) error
}

// Emitter publishes lifecycle events.
type Emitter interface {
	Emit(ctx context.Context, eventType events.EventType, videoID string, data any) error
}

// AudioExtractor writes the audio track of a video to a WAV file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, src, dst string) error
}

// CatalogSource supplies the current language catalog.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Config tunes the pipeline.
type Config struct {
	Fragmenter        fragment.Config
	NoSpeechThreshold float64
	Retry             retry.Policy
	UploadConcurrency int
	PunktDataDir      string
	TempDir           string
}

// DefaultConfig returns the stock pipeline settings.
func DefaultConfig() Config {
	return Config{
		Fragmenter:        fragment.DefaultConfig(),
		NoSpeechThreshold: 0.5,
		Retry:             retry.DefaultPolicy(),
		UploadConcurrency: 4,
	}
}

// Deps are the pipeline's collaborators. Audio and Transcriber are only
// needed by Transcribe; Index and Events may be nil.
type Deps struct {
	Catalog     CatalogSource
	Detector    fragment.Detector
	Clipper     Clipper
	Videos      VideoStore
	Index       Indexer
	Events      Emitter
	Audio       AudioExtractor
	Transcriber transcribe.Transcriber
}

// Pipeline runs ingestion jobs.
type Pipeline struct {
	cfg  Config
	deps Deps

	jobs          metric.Int64Counter
	fragments     metric.Int64Counter
	indexFailures metric.Int64Counter
}

// NewPipeline creates a pipeline. The fragmenter config is validated here so
// that a bad deployment fails at startup.
func NewPipeline(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Fragmenter.Validate(); err != nil {
		return nil, err
	}
	if deps.Catalog == nil || deps.Clipper == nil || deps.Videos == nil {
		return nil, errors.New("ingest: catalog, clipper and video store are required")
	}
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = 1
	}
	if cfg.Retry.Name == "" {
		cfg.Retry.Name = "cut_and_store"
	}

	meter := otel.Meter("github.com/reelearn/reelearn/internal/ingest")
	jobs, _ := meter.Int64Counter("ingest_jobs",
		metric.WithDescription("ingestion jobs by final status"))
	fragments, _ := meter.Int64Counter("fragments_stored",
		metric.WithDescription("fragments cut, uploaded and persisted"))
	indexFailures, _ := meter.Int64Counter("index_failures",
		metric.WithDescription("fragment batches that could not be indexed"))

	return &Pipeline{
		cfg:           cfg,
		deps:          deps,
		jobs:          jobs,
		fragments:     fragments,
		indexFailures: indexFailures,
	}, nil
}

// Process fragments the job's segments, stores a clip per fragment, persists
// and indexes the result. On failure the video is marked failed and the
// error of the failing step is returned.
func (p *Pipeline) Process(ctx context.Context, job Job) ([]fragment.VideoFragment, error) {
	started := time.Now()

	raws := p.dropNoSpeech(ctx, job.Segments)
	if len(raws) == 0 {
		p.fail(ctx, job.VideoID, "filter", ErrNoSegments)
		return nil, ErrNoSegments
	}

	if err := p.deps.Videos.UpdateStatus(ctx, job.VideoID, video.StatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	p.emit(ctx, events.VideoProcessingStarted, job.VideoID, events.ProcessingStartedData{Segments: len(raws)})

	frags, stage, err := p.run(ctx, job, raws)
	if err != nil {
		p.fail(ctx, job.VideoID, stage, err)
		return nil, err
	}

	p.jobs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(video.StatusCompleted))))
	p.emit(ctx, events.VideoProcessingCompleted, job.VideoID, events.ProcessingCompletedData{
		Fragments:  len(frags),
		DurationMs: time.Since(started).Milliseconds(),
	})
	slog.InfoContext(ctx, "video processed",
		slog.String("video_id", job.VideoID),
		slog.Int("segments", len(raws)),
		slog.Int("fragments", len(frags)),
		slog.Duration("took", time.Since(started)),
	)
	return frags, nil
}

func (p *Pipeline) run(ctx context.Context, job Job, raws []fragment.RawSegment) ([]fragment.VideoFragment, string, error) {
	cat := p.deps.Catalog.Current()
	classifier := fragment.NewClassifier(p.deps.Detector, cat.Supported(), cat.Fallback())
	segs := classifier.Annotate(ctx, raws)

	engine, err := p.newEngine(cat)
	if err != nil {
		return nil, "build", err
	}
	frags, err := engine.Build(ctx, segs)
	if err != nil {
		return nil, "build", err
	}
	if len(job.Tags) > 0 {
		for i := range frags {
			frags[i].Tags = append([]string(nil), job.Tags...)
		}
	}

	if err := p.upload(ctx, job, frags); err != nil {
		return nil, "upload", err
	}

	ids, err := p.deps.Videos.SaveFragments(ctx, job.VideoID, frags)
	if err != nil {
		return nil, "persist", err
	}
	if err := p.deps.Videos.UpdateStatus(ctx, job.VideoID, video.StatusCompleted, ""); err != nil {
		return nil, "persist", err
	}
	p.fragments.Add(ctx, int64(len(frags)))

	p.index(ctx, job.VideoID, frags, ids)
	return frags, "", nil
}

// newEngine builds a fresh engine per job so tokenizer caches follow the
// catalog snapshot.
func (p *Pipeline) newEngine(cat *catalog.Catalog) (*fragment.Engine, error) {
	splitter := fragment.NewSplitter(
		fragment.NewTokenizerRegistry(cat.PunktFiles()),
		map[string]string{fragment.PunktDataDirOption: p.cfg.PunktDataDir},
	)
	return fragment.NewEngine(p.cfg.Fragmenter, splitter)
}

func (p *Pipeline) dropNoSpeech(ctx context.Context, in []fragment.RawSegment) []fragment.RawSegment {
	out := make([]fragment.RawSegment, 0, len(in))
	for _, s := range in {
		if s.NoSpeechProb != nil && *s.NoSpeechProb > p.cfg.NoSpeechThreshold {
			slog.DebugContext(ctx, "dropping no-speech segment",
				slog.Float64("start", s.Start),
				slog.Float64("no_speech_prob", *s.NoSpeechProb))
			continue
		}
		out = append(out, s)
	}
	return out
}

// upload cuts and stores every fragment in parallel. The first failure
// cancels the remaining uploads.
func (p *Pipeline) upload(ctx context.Context, job Job, frags []fragment.VideoFragment) error {
	src := media.Source{VideoID: job.VideoID, Location: job.Source}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.UploadConcurrency)
	for i := range frags {
		start, end := frags[i].Start, frags[i].End
		g.Go(func() error {
			res := retry.Run(gctx, p.cfg.Retry, func(ctx context.Context) (string, error) {
				return p.deps.Clipper.CutAndStore(ctx, src, start, end)
			})
			if res.Err != nil {
				slog.ErrorContext(gctx, "fragment upload failed",
					slog.String("video_id", job.VideoID),
					slog.Int("fragment", i),
					slog.Int("attempts", res.Attempts),
					slog.String("error", res.Err.Error()))
				return res.Err
			}
			frags[i].MediaReference = res.Value
			p.emit(gctx, events.FragmentStored, job.VideoID, events.FragmentStoredData{
				Start:          start,
				End:            end,
				MediaReference: res.Value,
				Attempts:       res.Attempts,
			})
			return nil
		})
	}
	return g.Wait()
}

// index pushes fragments to the search index. The database is the source of
// truth, so a failure here is logged and counted but does not fail the job.
func (p *Pipeline) index(ctx context.Context, videoID string, frags []fragment.VideoFragment, ids []string) {
	if p.deps.Index == nil || len(frags) == 0 {
		return
	}
	docs := make([]search.Document, 0, len(frags))
	for i, f := range frags {
		docs = append(docs, search.Document{
			FragmentID:       ids[i],
			VideoID:          videoID,
			Text:             f.Text,
			Tags:             f.Tags,
			Language:         string(f.Language),
			Start:            f.Start,
			End:              f.End,
			SpeechConfidence: f.SpeechConfidence,
			NoSpeechProb:     f.NoSpeechProb,
		})
	}
	if err := p.deps.Index.IndexFragments(ctx, docs); err != nil {
		p.indexFailures.Add(ctx, 1)
		slog.ErrorContext(ctx, "indexing fragments failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		return
	}
	p.emit(ctx, events.FragmentsIndexed, videoID, events.FragmentsIndexedData{Count: len(docs)})
}

func (p *Pipeline) fail(ctx context.Context, videoID, stage string, cause error) {
	// The job context may already be cancelled; the failure must still land.
	ctx = context.WithoutCancel(ctx)

	p.jobs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(video.StatusFailed))))
	slog.ErrorContext(ctx, "video processing failed",
		slog.String("video_id", videoID),
		slog.String("stage", stage),
		slog.String("error", cause.Error()))

	if err := p.deps.Videos.UpdateStatus(ctx, videoID, video.StatusFailed, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "marking video failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
	}
	p.emit(ctx, events.VideoProcessingFailed, videoID, events.ProcessingFailedData{Stage: stage, Error: cause.Error()})
}

func (p *Pipeline) emit(ctx context.Context, t events.EventType, videoID string, data any) {
	if p.deps.Events == nil {
		return
	}
	if err := p.deps.Events.Emit(ctx, t, videoID, data); err != nil {
		slog.WarnContext(ctx, "emit event failed",
			slog.String("event_type", string(t)),
			slog.String("error", err.Error()))
	}
}

// Transcribe extracts the audio of the job's source and runs speech
// recognition on it.
func (p *Pipeline) Transcribe(ctx context.Context, job Job) ([]fragment.RawSegment, error) {
	if p.deps.Audio == nil || p.deps.Transcriber == nil {
		return nil, errors.New("ingest: transcription is not configured")
	}

	dir, err := os.MkdirTemp(p.cfg.TempDir, "audio-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, job.VideoID+".wav")
	if err := p.deps.Audio.ExtractAudio(ctx, job.Source, wav); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	segs, err := p.deps.Transcriber.Transcribe(ctx, wav)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return segs, nil
}
