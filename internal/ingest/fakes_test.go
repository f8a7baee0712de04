package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/reelearn/reelearn/internal/catalog"
	"github.com/reelearn/reelearn/internal/media"
	"github.com/reelearn/reelearn/pkg/events"
	"github.com/reelearn/reelearn/pkg/fragment"
	"github.com/reelearn/reelearn/pkg/retry"
	"github.com/reelearn/reelearn/pkg/search"
	"github.com/reelearn/reelearn/pkg/video"
)

type englishDetector struct{}

func (englishDetector) Detect(string) (fragment.Language, error) { return "en", nil }

type staticCatalog struct{ c *catalog.Catalog }

func (s staticCatalog) Current() *catalog.Catalog { return s.c }

// fakeClipper fails the first failures attempts for every range.
type fakeClipper struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    map[string]int
}

func (f *fakeClipper) CutAndStore(_ context.Context, src media.Source, start, end float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	key := media.ClipKey(src.VideoID, start, end)
	f.calls[key]++
	if f.calls[key] <= f.failures {
		if f.err != nil {
			return "", f.err
		}
		return "", errors.New("transient upload failure")
	}
	return key, nil
}

type statusChange struct {
	Status video.Status
	Reason string
}

type fakeVideos struct {
	mu       sync.Mutex
	statuses []statusChange
	saved    []fragment.VideoFragment
	saveErr  error
}

func (f *fakeVideos) UpdateStatus(_ context.Context, _ string, status video.Status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusChange{status, reason})
	return nil
}

func (f *fakeVideos) SaveFragments(_ context.Context, _ string, frags []fragment.VideoFragment) ([]string, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = frags
	ids := make([]string, len(frags))
	for i := range frags {
		ids[i] = fmt.Sprintf("frag-%d", i)
	}
	return ids, nil
}

func (f *fakeVideos) statusList() []video.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []video.Status
	for _, s := range f.statuses {
		out = append(out, s.Status)
	}
	return out
}

type fakeIndex struct {
	docs []search.Document
	err  error
}

func (f *fakeIndex) IndexFragments(_ context.Context, docs []search.Document) error {
	f.docs = docs
	return f.err
}

type fakeEvents struct {
	mu     sync.Mutex
	types  []events.EventType
	stored []events.FragmentStoredData
	failed []events.ProcessingFailedData
}

func (f *fakeEvents) Emit(_ context.Context, t events.EventType, _ string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, t)
	switch d := data.(type) {
	case events.FragmentStoredData:
		f.stored = append(f.stored, d)
	case events.ProcessingFailedData:
		f.failed = append(f.failed, d)
	}
	return nil
}

func (f *fakeEvents) has(t events.EventType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, got := range f.types {
		if got == t {
			return true
		}
	}
	return false
}

type harness struct {
	pipeline *Pipeline
	clipper  *fakeClipper
	videos   *fakeVideos
	index    *fakeIndex
	events   *fakeEvents
}

func newHarness(t *testing.T, mutate func(*Config, *Deps)) *harness {
	t.Helper()
	h := &harness{
		clipper: &fakeClipper{},
		videos:  &fakeVideos{},
		index:   &fakeIndex{},
		events:  &fakeEvents{},
	}
	cfg := DefaultConfig()
	cfg.Retry = retry.Policy{Attempts: 3}
	deps := Deps{
		Catalog:  staticCatalog{catalog.FromList("en", []string{"en", "ru"})},
		Detector: englishDetector{},
		Clipper:  h.clipper,
		Videos:   h.videos,
		Index:    h.index,
		Events:   h.events,
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	p, err := NewPipeline(cfg, deps)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	h.pipeline = p
	return h
}

func ptr(v float64) *float64 { return &v }

func lectureSegments() []fragment.RawSegment {
	return []fragment.RawSegment{
		{Start: 0, End: 6, Text: "Rivers carry water to the sea."},
		{Start: 6, End: 12, Text: "They shape valleys over time."},
		{Start: 12, End: 18, Text: "Lakes form where water collects."},
		{Start: 18, End: 24, Text: "Some lakes are very deep."},
	}
}
