package search

import (
	"testing"
)

func record(id, videoID string) FragmentRecord {
	rec := FragmentRecord{ID: id, Text: "text " + id}
	if videoID != "" {
		rec.Video = &VideoInfo{ID: videoID, Name: "video " + videoID}
	}
	return rec
}

func scores(g Group) []float64 {
	out := make([]float64, 0, len(g.Fragments))
	for _, f := range g.Fragments {
		out = append(out, f.Score)
	}
	return out
}

func equalScores(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssembleCapsInArrivalOrder(t *testing.T) {
	records := map[string]FragmentRecord{
		"a1": record("a1", "A"),
		"a2": record("a2", "A"),
		"a3": record("a3", "A"),
		"b1": record("b1", "B"),
	}
	hits := []Hit{
		{FragmentID: "a1", Score: 5},
		{FragmentID: "b1", Score: 7},
		{FragmentID: "a3", Score: 9},
		{FragmentID: "a2", Score: 3},
	}

	got := Assemble(t.Context(), hits, records, 2)
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	if got[0].VideoID != "A" || got[1].VideoID != "B" {
		t.Errorf("group order = %s, %s, want A, B", got[0].VideoID, got[1].VideoID)
	}
	if s := scores(got[0]); !equalScores(s, []float64{9, 5}) {
		t.Errorf("video A scores = %v, want [9 5]", s)
	}
	if s := scores(got[1]); !equalScores(s, []float64{7}) {
		t.Errorf("video B scores = %v, want [7]", s)
	}
	if got[0].FragmentsCount != 2 || got[1].FragmentsCount != 1 {
		t.Errorf("fragments_count = %d, %d, want 2, 1", got[0].FragmentsCount, got[1].FragmentsCount)
	}
}

func TestAssembleDropsLateHigherScores(t *testing.T) {
	records := map[string]FragmentRecord{
		"a1": record("a1", "A"),
		"a2": record("a2", "A"),
		"a3": record("a3", "A"),
	}
	hits := []Hit{
		{FragmentID: "a1", Score: 1},
		{FragmentID: "a2", Score: 2},
		{FragmentID: "a3", Score: 100},
	}

	got := Assemble(t.Context(), hits, records, 2)
	if len(got) != 1 {
		t.Fatalf("got %d groups, want 1", len(got))
	}
	if s := scores(got[0]); !equalScores(s, []float64{2, 1}) {
		t.Errorf("scores = %v, want [2 1]", s)
	}
}

func TestAssembleSkipsUnresolved(t *testing.T) {
	records := map[string]FragmentRecord{
		"ok":     record("ok", "A"),
		"orphan": record("orphan", ""),
		"ok-too": record("ok-too", "B"),
	}
	hits := []Hit{
		{FragmentID: "missing", Score: 10},
		{FragmentID: "orphan", Score: 9},
		{FragmentID: "ok", Score: 4},
		{FragmentID: "ok-too", Score: 6},
	}

	got := Assemble(t.Context(), hits, records, 2)
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	if got[0].VideoID != "B" || got[1].VideoID != "A" {
		t.Errorf("group order = %s, %s, want B, A", got[0].VideoID, got[1].VideoID)
	}
}

func TestAssembleStableTies(t *testing.T) {
	records := map[string]FragmentRecord{
		"x": record("x", "X"),
		"y": record("y", "Y"),
		"z": record("z", "Z"),
	}
	hits := []Hit{
		{FragmentID: "y", Score: 3},
		{FragmentID: "z", Score: 5},
		{FragmentID: "x", Score: 3},
	}

	got := Assemble(t.Context(), hits, records, 2)
	order := []string{got[0].VideoID, got[1].VideoID, got[2].VideoID}
	want := []string{"Z", "Y", "X"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestAssembleInvariants(t *testing.T) {
	records := map[string]FragmentRecord{}
	var hits []Hit
	videos := []string{"A", "B", "C"}
	for i := 0; i < 30; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		records[id] = record(id, videos[i%len(videos)])
		hits = append(hits, Hit{FragmentID: id, Score: float64((i * 7) % 11)})
	}
	hits = append(hits, hits[0])

	for _, perVideo := range []int{1, 2, 3, 0} {
		got := Assemble(t.Context(), hits, records, perVideo)
		limit := perVideo
		if limit <= 0 {
			limit = DefaultResultsPerVideo
		}

		seen := map[string]bool{}
		for gi, g := range got {
			if len(g.Fragments) > limit {
				t.Errorf("perVideo=%d: group %s has %d fragments", perVideo, g.VideoID, len(g.Fragments))
			}
			if g.FragmentsCount != len(g.Fragments) {
				t.Errorf("perVideo=%d: fragments_count mismatch", perVideo)
			}
			for i, f := range g.Fragments {
				if seen[f.FragmentID] {
					t.Errorf("perVideo=%d: fragment %s appears twice", perVideo, f.FragmentID)
				}
				seen[f.FragmentID] = true
				if i > 0 && f.Score > g.Fragments[i-1].Score {
					t.Errorf("perVideo=%d: group %s not sorted by score", perVideo, g.VideoID)
				}
			}
			if gi > 0 && g.MaxScore() > got[gi-1].MaxScore() {
				t.Errorf("perVideo=%d: groups not sorted by max score", perVideo)
			}
		}
	}
}

func TestAssembleEmpty(t *testing.T) {
	if got := Assemble(t.Context(), nil, nil, 2); len(got) != 0 {
		t.Errorf("got %d groups, want 0", len(got))
	}
}
