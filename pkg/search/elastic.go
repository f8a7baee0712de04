package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Document is the indexed form of a fragment.
type Document struct {
	FragmentID       string   `json:"fragment_id"`
	VideoID          string   `json:"video_id"`
	Text             string   `json:"text"`
	Tags             []string `json:"tags"`
	Language         string   `json:"language"`
	Start            float64  `json:"start"`
	End              float64  `json:"end"`
	SpeechConfidence float64  `json:"speech_confidence"`
	NoSpeechProb     float64  `json:"no_speech_prob"`
}

// ElasticIndex stores and queries fragments in one Elasticsearch index.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticIndex connects to the given addresses. No request is made until
// the index is first used.
func NewElasticIndex(addresses []string, index string) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ElasticIndex{client: client, index: index}, nil
}

// EnsureIndex creates the index with the fragment mapping if it is missing.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: check index: %w", ErrIndex, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: check index: %s", ErrIndex, res.Status())
	}

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return err
	}
	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
		e.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: create index: %w", ErrIndex, err)
	}
	return checkResponse(res, "create index")
}

// Search runs q and returns hits in index order.
func (e *ElasticIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	body, err := json.Marshal(BuildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res, "search")
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Score  float64  `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %w", ErrIndex, err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id := h.Source.FragmentID
		if id == "" {
			id = h.ID
		}
		hits = append(hits, Hit{
			FragmentID: id,
			Score:      h.Score,
			Text:       h.Source.Text,
			Tags:       h.Source.Tags,
		})
	}
	return hits, nil
}

// IndexFragments writes docs in one bulk request, keyed by fragment ID so
// re-indexing replaces earlier copies.
func (e *ElasticIndex) IndexFragments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		meta := map[string]any{"index": map[string]any{"_index": e.index, "_id": d.FragmentID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(d); err != nil {
			return err
		}
	}

	res, err := e.client.Bulk(&buf,
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(e.index),
		e.client.Bulk.WithRefresh("true"))
	if err != nil {
		return fmt.Errorf("%w: bulk index: %w", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, "bulk index")
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string          `json:"_id"`
			Error json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("%w: decode bulk response: %w", ErrIndex, err)
	}
	if parsed.Errors {
		for _, item := range parsed.Items {
			for _, r := range item {
				if len(r.Error) > 0 {
					return fmt.Errorf("%w: bulk index %s: %s", ErrIndex, r.ID, r.Error)
				}
			}
		}
		return fmt.Errorf("%w: bulk index reported errors", ErrIndex)
	}
	return nil
}

// DeleteFragment removes one fragment. A missing document is not an error.
func (e *ElasticIndex) DeleteFragment(ctx context.Context, fragmentID string) error {
	res, err := e.client.Delete(e.index, fragmentID, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: delete: %w", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError(res, "delete")
	}
	return nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, op)
	}
	return nil
}

func responseError(res *esapi.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%w: %s: %s: %s", ErrIndex, op, res.Status(), bytes.TrimSpace(body))
}
