package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pitabwire/frame/queue"
	"github.com/rs/xid"
)

// Publisher emits video lifecycle events. Every event goes to the frame
// queue named by queueRef and to the in-process watchers whose video filter
// matches.
type Publisher struct {
	queueMgr queue.Manager
	source   string
	queueRef string

	mu       sync.RWMutex
	watchers map[string]watcher
}

type watcher struct {
	videoID string
	ch      chan Envelope
}

func (w watcher) wants(videoID string) bool {
	return w.videoID == "" || w.videoID == videoID
}

// NewPublisher returns a publisher stamping events with source. A nil
// queueMgr keeps events in-process.
func NewPublisher(queueMgr queue.Manager, source string, queueRef string) *Publisher {
	return &Publisher{
		queueMgr: queueMgr,
		source:   source,
		queueRef: queueRef,
		watchers: make(map[string]watcher),
	}
}

// Emit wraps data in an Envelope for videoID and publishes it. Watchers that
// cannot keep up miss the event.
func (p *Publisher) Emit(ctx context.Context, eventType EventType, videoID string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env := Envelope{
		ID:        xid.New().String(),
		Type:      eventType,
		Source:    p.source,
		VideoID:   videoID,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}

	p.mu.RLock()
	for id, w := range p.watchers {
		if !w.wants(videoID) {
			continue
		}
		select {
		case w.ch <- env:
		default:
			slog.WarnContext(ctx, "event dropped for slow watcher",
				slog.String("watcher", id),
				slog.String("video_id", videoID),
				slog.String("event_type", string(eventType)))
		}
	}
	p.mu.RUnlock()

	if p.queueMgr == nil {
		return nil
	}
	if err := p.queueMgr.Publish(ctx, p.queueRef, env); err != nil {
		return fmt.Errorf("publish %s for video %s: %w", eventType, videoID, err)
	}
	return nil
}

// Subscribe registers a watcher under id for the events of videoID, or of
// every video when videoID is empty. Call Unsubscribe with the same id when
// done.
func (p *Publisher) Subscribe(id, videoID string, bufSize int) <-chan Envelope {
	if bufSize <= 0 {
		bufSize = 64
	}
	w := watcher{videoID: videoID, ch: make(chan Envelope, bufSize)}

	p.mu.Lock()
	if old, ok := p.watchers[id]; ok {
		close(old.ch)
	}
	p.watchers[id] = w
	p.mu.Unlock()
	return w.ch
}

// Unsubscribe removes the watcher and closes its channel.
func (p *Publisher) Unsubscribe(id string) {
	p.mu.Lock()
	if w, ok := p.watchers[id]; ok {
		close(w.ch)
		delete(p.watchers, id)
	}
	p.mu.Unlock()
}
