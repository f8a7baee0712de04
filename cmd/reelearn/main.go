package main

import (
	"context"
	"log"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"

	rlconfig "github.com/reelearn/reelearn/config"
	"github.com/reelearn/reelearn/internal/api"
	"github.com/reelearn/reelearn/internal/catalog"
	"github.com/reelearn/reelearn/internal/httputil"
	"github.com/reelearn/reelearn/internal/ingest"
	"github.com/reelearn/reelearn/internal/media"
	"github.com/reelearn/reelearn/internal/transcribe"
	"github.com/reelearn/reelearn/pkg/events"
	"github.com/reelearn/reelearn/pkg/fragment"
	"github.com/reelearn/reelearn/pkg/search"
	"github.com/reelearn/reelearn/pkg/video"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[rlconfig.ServiceConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("reelearn"),
		frame.WithRegisterServerOauth2Client(),
		frame.WithDatastore(),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	authenticator := srv.SecurityManager().GetAuthenticator(ctx)
	pub := events.NewPublisher(srv.QueueManager(), "reelearn", eventRef)

	// --- Persistence ---
	videos := video.NewRepository(srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"))
	if err := videos.Migrate(ctx); err != nil {
		log.Fatalf("migrating video tables: %v", err)
	}

	// --- Search index ---
	index, err := search.NewElasticIndex(cfg.ElasticsearchAddressList(), cfg.ElasticsearchIndex)
	if err != nil {
		log.Fatalf("creating search index client: %v", err)
	}
	if err := index.EnsureIndex(ctx); err != nil {
		log.Printf("warning: ensuring search index: %v", err)
	}
	searchSvc := search.NewService(index, videos, cfg.ResultsPerVideo, cfg.SearchHistorySize)

	// --- Languages ---
	languages := catalog.NewLoader(cfg.LanguageCatalog, cfg.LanguageFallback())
	if _, err := languages.Load(); err != nil {
		log.Printf("warning: loading language catalog: %v", err)
	}
	go func() {
		if err := languages.WatchAndReload(ctx); err != nil {
			log.Printf("warning: language catalog watcher stopped: %v", err)
		}
	}()

	// --- Media ---
	store, err := media.OpenBlobStore(ctx, cfg.BlobBucketURL, cfg.BlobPublicURL)
	if err != nil {
		log.Fatalf("opening clip storage: %v", err)
	}
	defer store.Close()
	ffmpeg := media.NewFFmpeg(cfg.FFmpegBinary, cfg.FFmpegThreads, cfg.FFmpegPreset, cfg.FFmpegCRF)
	clipper := media.NewClipper(ffmpeg, store, cfg.TempDir)

	transcriber, err := transcribe.New(cfg.ASRBackend, cfg.ASROptions())
	if err != nil {
		log.Printf("warning: speech recognition disabled: %v", err)
	}

	// --- Ingestion ---
	pipeline, err := ingest.NewPipeline(cfg.Ingest(), ingest.Deps{
		Catalog:     languages,
		Detector:    fragment.NewWhatlangDetector(),
		Clipper:     clipper,
		Videos:      videos,
		Index:       index,
		Events:      pub,
		Audio:       ffmpeg,
		Transcriber: transcriber,
	})
	if err != nil {
		log.Fatalf("creating ingest pipeline: %v", err)
	}
	runner := ingest.NewRunner(pipeline, pool)

	// --- HTTP ---
	handler := api.NewHandler(videos, searchSvc, runner, index, pub, api.Options{MinScore: cfg.SearchMinScore})
	restMux := http.NewServeMux()
	handler.RegisterRoutes(restMux)

	mux := http.NewServeMux()
	mux.Handle("/api/", httputil.AuthenticatedHTTPMiddleware(restMux, authenticator))

	srv.Init(ctx,
		frame.WithRegisterSubscriber(cfg.IngestQueueName, cfg.IngestQueueURL, &ingest.Subscriber{Runner: runner}),
		frame.WithHTTPHandler(httputil.H2CHandler(httputil.LoggingMiddleware(mux))),
	)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
