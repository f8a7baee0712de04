package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/emirpasic/gods/v2/queues/circularbuffer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HistoryEntry records one executed query.
type HistoryEntry struct {
	Query     Query     `json:"query"`
	Groups    int       `json:"groups"`
	Timestamp time.Time `json:"timestamp"`
}

// Service answers search queries: it runs them against the index, loads
// the matching fragments and assembles the grouped response.
type Service struct {
	searcher        Searcher
	resolver        Resolver
	resultsPerVideo int

	queries metric.Int64Counter

	mu      sync.Mutex
	history *circularbuffer.Queue[*HistoryEntry]
}

// NewService creates a search service. resultsPerVideo is used for queries
// that do not set their own cap; historySize bounds the query history.
func NewService(searcher Searcher, resolver Resolver, resultsPerVideo, historySize int) *Service {
	if resultsPerVideo <= 0 {
		resultsPerVideo = DefaultResultsPerVideo
	}
	if historySize <= 0 {
		historySize = 50
	}
	queries, _ := otel.Meter("github.com/reelearn/reelearn/pkg/search").Int64Counter(
		"search_queries",
		metric.WithDescription("search queries served"))
	return &Service{
		searcher:        searcher,
		resolver:        resolver,
		resultsPerVideo: resultsPerVideo,
		queries:         queries,
		history:         circularbuffer.New[*HistoryEntry](historySize),
	}
}

// Search executes q. Index and lookup failures are returned; hits whose
// fragments cannot be resolved are skipped.
func (s *Service) Search(ctx context.Context, q Query) ([]Group, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.ResultsPerVideo <= 0 {
		q.ResultsPerVideo = s.resultsPerVideo
	}

	groups, err := s.search(ctx, q)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if s.queries != nil {
		s.queries.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("exact", q.Exact),
			attribute.String("outcome", outcome)))
	}
	if err != nil {
		return nil, err
	}

	q.Tags = slices.Clone(q.Tags)
	s.mu.Lock()
	s.history.Enqueue(&HistoryEntry{Query: q, Groups: len(groups), Timestamp: time.Now().UTC()})
	s.mu.Unlock()
	return groups, nil
}

func (s *Service) search(ctx context.Context, q Query) ([]Group, error) {
	hits, err := s.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []Group{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.FragmentID)
	}
	records, err := s.resolver.ResolveFragments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve fragments: %w", err)
	}
	return Assemble(ctx, hits, records, q.ResultsPerVideo), nil
}

// History returns recent queries, most recent first.
func (s *Service) History() []HistoryEntry {
	s.mu.Lock()
	values := s.history.Values()
	s.mu.Unlock()

	out := make([]HistoryEntry, len(values))
	for i, v := range values {
		out[len(values)-1-i] = *v
	}
	return out
}
