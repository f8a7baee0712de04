package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEmitFansOutLocally(t *testing.T) {
	pub := NewPublisher(nil, "ingest", "events")
	ch := pub.Subscribe("test", "", 4)
	defer pub.Unsubscribe("test")

	err := pub.Emit(t.Context(), FragmentStored, "video-1", FragmentStoredData{
		Start:          1.5,
		End:            9,
		MediaReference: "fragments/video-1/1.500_9.000.mp4",
		Attempts:       2,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	select {
	case env := <-ch:
		if env.Type != FragmentStored {
			t.Errorf("type = %q, want %q", env.Type, FragmentStored)
		}
		if env.Source != "ingest" {
			t.Errorf("source = %q, want %q", env.Source, "ingest")
		}
		if env.VideoID != "video-1" {
			t.Errorf("video_id = %q, want %q", env.VideoID, "video-1")
		}
		if env.ID == "" || env.Timestamp.IsZero() {
			t.Error("envelope missing id or timestamp")
		}

		var payload FragmentStoredData
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Attempts != 2 || payload.MediaReference != "fragments/video-1/1.500_9.000.mp4" {
			t.Errorf("payload = %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	pub := NewPublisher(nil, "ingest", "events")
	ch := pub.Subscribe("slow", "", 1)
	defer pub.Unsubscribe("slow")

	for i := 0; i < 3; i++ {
		if err := pub.Emit(t.Context(), VideoProcessingStarted, "v", ProcessingStartedData{Segments: i}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if len(ch) != 1 {
		t.Errorf("buffered %d events, want 1", len(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	pub := NewPublisher(nil, "ingest", "events")
	ch := pub.Subscribe("gone", "", 0)
	pub.Unsubscribe("gone")

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	if err := pub.Emit(t.Context(), VideoCreated, "v", VideoCreatedData{Name: "n"}); err != nil {
		t.Errorf("Emit after unsubscribe: %v", err)
	}
}

func TestEmitRejectsUnencodablePayload(t *testing.T) {
	pub := NewPublisher(nil, "ingest", "events")
	if err := pub.Emit(t.Context(), VideoCreated, "v", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestSubscribeFiltersByVideo(t *testing.T) {
	pub := NewPublisher(nil, "ingest", "events")
	one := pub.Subscribe("one", "video-1", 4)
	all := pub.Subscribe("all", "", 4)
	defer pub.Unsubscribe("one")
	defer pub.Unsubscribe("all")

	for _, id := range []string{"video-1", "video-2", "video-1"} {
		if err := pub.Emit(t.Context(), VideoProcessingStarted, id, ProcessingStartedData{Segments: 1}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if len(one) != 2 {
		t.Errorf("video-1 watcher got %d events, want 2", len(one))
	}
	if len(all) != 3 {
		t.Errorf("unfiltered watcher got %d events, want 3", len(all))
	}
	for len(one) > 0 {
		if env := <-one; env.VideoID != "video-1" {
			t.Errorf("video-1 watcher got event for %q", env.VideoID)
		}
	}
}

func TestSubscribeReplacesWatcher(t *testing.T) {
	pub := NewPublisher(nil, "ingest", "events")
	first := pub.Subscribe("w", "", 1)
	second := pub.Subscribe("w", "", 1)
	defer pub.Unsubscribe("w")

	if _, ok := <-first; ok {
		t.Error("replaced channel still open")
	}
	if err := pub.Emit(t.Context(), VideoCreated, "v", VideoCreatedData{Name: "n"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("new watcher got %d events, want 1", len(second))
	}
}

func TestEventTypeConstants(t *testing.T) {
	types := []EventType{
		VideoCreated,
		VideoProcessingStarted, VideoProcessingCompleted, VideoProcessingFailed,
		FragmentStored, FragmentsIndexed, SearchExecuted,
	}

	seen := make(map[EventType]bool)
	for _, et := range types {
		if et == "" {
			t.Error("empty event type constant")
		}
		if seen[et] {
			t.Errorf("duplicate event type: %q", et)
		}
		seen[et] = true
	}
}
