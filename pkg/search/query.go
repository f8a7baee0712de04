package search

// maxHits bounds how many hits one query pulls from the index.
const maxHits = 100

// BuildQuery renders q as an Elasticsearch request body. Exact queries match
// the phrase as typed; others combine a fuzzy match with a boosted
// near-phrase match. Tags add a terms clause. A hit needs at least one clause.
func BuildQuery(q Query) map[string]any {
	should := []any{}
	if q.Text != "" {
		if q.Exact {
			should = append(should, map[string]any{
				"match_phrase": map[string]any{
					"text": map[string]any{"query": q.Text, "slop": 0},
				},
			})
		} else {
			should = append(should,
				map[string]any{
					"multi_match": map[string]any{
						"query":     q.Text,
						"fields":    []string{"text", "text.keyword"},
						"operator":  "or",
						"fuzziness": "AUTO",
					},
				},
				map[string]any{
					"match_phrase": map[string]any{
						"text": map[string]any{"query": q.Text, "slop": 2, "boost": 2.0},
					},
				},
			)
		}
	}
	if len(q.Tags) > 0 {
		should = append(should, map[string]any{
			"terms": map[string]any{"tags": q.Tags},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"min_score": q.MinScore,
		"size":      maxHits,
	}
}

// indexMapping is the mapping used when the index is created.
var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"fragment_id": map[string]any{"type": "keyword"},
			"video_id":    map[string]any{"type": "keyword"},
			"text": map[string]any{
				"type": "text",
				"fields": map[string]any{
					"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
				},
			},
			"tags":              map[string]any{"type": "keyword"},
			"language":          map[string]any{"type": "keyword"},
			"start":             map[string]any{"type": "float"},
			"end":               map[string]any{"type": "float"},
			"speech_confidence": map[string]any{"type": "float"},
			"no_speech_prob":    map[string]any{"type": "float"},
		},
	},
}
