package search

import (
	"context"
	"errors"
)

// DefaultResultsPerVideo caps each video's group when no cap is given.
const DefaultResultsPerVideo = 2

// ErrIndex wraps failures reported by the search index.
var ErrIndex = errors.New("search index")

// Hit is one scored match returned by the index.
type Hit struct {
	FragmentID string   `json:"fragment_id"`
	Score      float64  `json:"score"`
	Text       string   `json:"text,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// VideoInfo is the display metadata of a fragment's owning video.
type VideoInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FragmentRecord is a stored fragment as seen by the aggregator. Video is
// nil when the owning video no longer exists.
type FragmentRecord struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	Start          float64    `json:"start"`
	End            float64    `json:"end"`
	MediaReference string     `json:"media_reference"`
	Tags           []string   `json:"tags"`
	Video          *VideoInfo `json:"video,omitempty"`
}

// FragmentResult is one fragment within a result group.
type FragmentResult struct {
	FragmentID     string   `json:"fragment_id"`
	Score          float64  `json:"score"`
	Text           string   `json:"text"`
	Start          float64  `json:"start"`
	End            float64  `json:"end"`
	MediaReference string   `json:"media_reference"`
	Tags           []string `json:"tags,omitempty"`
}

// Group is one video's share of a search response.
type Group struct {
	VideoID        string           `json:"video_id"`
	Video          VideoInfo        `json:"video"`
	Fragments      []FragmentResult `json:"fragments"`
	FragmentsCount int              `json:"fragments_count"`
}

// MaxScore returns the best score in the group.
func (g Group) MaxScore() float64 {
	best := 0.0
	for i, f := range g.Fragments {
		if i == 0 || f.Score > best {
			best = f.Score
		}
	}
	return best
}

// Query is a full-text search request.
type Query struct {
	Text            string   `json:"query"`
	Exact           bool     `json:"exact"`
	Tags            []string `json:"tags,omitempty"`
	MinScore        float64  `json:"min_score"`
	ResultsPerVideo int      `json:"results_per_video"`
}

// Searcher executes queries against the full-text index.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// Resolver looks fragments up by ID. Unknown IDs are left out of the map.
type Resolver interface {
	ResolveFragments(ctx context.Context, ids []string) (map[string]FragmentRecord, error)
}
