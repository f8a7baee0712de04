package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pitabwire/util"

	"github.com/reelearn/reelearn/pkg/video"
)

// Pool runs tasks in the background. frame's workerpool.WorkerPool satisfies
// it.
type Pool interface {
	Submit(ctx context.Context, task func()) error
}

// Runner executes jobs in the background.
type Runner struct {
	pipeline *Pipeline
	pool     Pool
}

// NewRunner creates a runner. Without a pool every job gets its own
// goroutine.
func NewRunner(pipeline *Pipeline, pool Pool) *Runner {
	return &Runner{pipeline: pipeline, pool: pool}
}

// Submit schedules job. The job outlives the caller's context but keeps its
// values.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	ctx = context.WithoutCancel(ctx)
	task := func() {
		_ = r.Run(ctx, job)
	}
	if r.pool == nil {
		go task()
		return nil
	}
	if err := r.pool.Submit(ctx, task); err != nil {
		return fmt.Errorf("submit ingest job: %w", err)
	}
	return nil
}

// Run processes job, transcribing the source first when the job carries no
// segments.
func (r *Runner) Run(ctx context.Context, job Job) error {
	if len(job.Segments) == 0 && job.Source != "" {
		if err := r.pipeline.deps.Videos.UpdateStatus(ctx, job.VideoID, video.StatusProcessing, ""); err != nil {
			slog.WarnContext(ctx, "marking video processing", slog.String("video_id", job.VideoID), slog.String("error", err.Error()))
		}
		segs, err := r.pipeline.Transcribe(ctx, job)
		if err != nil {
			r.pipeline.fail(ctx, job.VideoID, "transcribe", err)
			return err
		}
		job.Segments = segs
	}

	_, err := r.pipeline.Process(ctx, job)
	return err
}

// Subscriber consumes ingest jobs published to the queue.
type Subscriber struct {
	Runner *Runner
}

// Handle is called by frame's pub/sub for each job message.
func (s *Subscriber) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var job Job
	if err := json.Unmarshal(message, &job); err != nil {
		util.Log(ctx).WithError(err).Error("ingest subscriber: unmarshal job")
		return err
	}
	if job.VideoID == "" {
		err := fmt.Errorf("ingest subscriber: job without video id")
		util.Log(ctx).WithError(err).Error("ingest subscriber: invalid job")
		return err
	}

	if err := s.Runner.Submit(ctx, job); err != nil {
		util.Log(ctx).WithError(err).Error("ingest subscriber: submit job")
		return err
	}
	return nil
}
