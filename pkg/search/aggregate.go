package search

import (
	"context"
	"log/slog"
	"sort"
)

// Assemble groups hits by video. Hits are taken in the order given: once a
// video holds perVideo fragments its later hits are dropped, whatever their
// score. Fragments are then ordered by score within each group and groups by
// their best score, keeping encounter order on ties. Hits whose fragment or
// video cannot be found are logged and skipped.
func Assemble(ctx context.Context, hits []Hit, records map[string]FragmentRecord, perVideo int) []Group {
	if perVideo <= 0 {
		perVideo = DefaultResultsPerVideo
	}

	var groups []*Group
	byVideo := make(map[string]*Group)
	seen := make(map[string]struct{}, len(hits))

	for _, hit := range hits {
		if _, dup := seen[hit.FragmentID]; dup {
			continue
		}
		seen[hit.FragmentID] = struct{}{}

		rec, ok := records[hit.FragmentID]
		if !ok {
			slog.WarnContext(ctx, "search hit references unknown fragment",
				slog.String("fragment_id", hit.FragmentID))
			continue
		}
		if rec.Video == nil || rec.Video.ID == "" {
			slog.WarnContext(ctx, "search hit fragment has no video",
				slog.String("fragment_id", hit.FragmentID))
			continue
		}

		g, ok := byVideo[rec.Video.ID]
		if !ok {
			g = &Group{VideoID: rec.Video.ID, Video: *rec.Video}
			byVideo[rec.Video.ID] = g
			groups = append(groups, g)
		}
		if len(g.Fragments) >= perVideo {
			continue
		}

		tags := rec.Tags
		if len(tags) == 0 {
			tags = hit.Tags
		}
		g.Fragments = append(g.Fragments, FragmentResult{
			FragmentID:     hit.FragmentID,
			Score:          hit.Score,
			Text:           rec.Text,
			Start:          rec.Start,
			End:            rec.End,
			MediaReference: rec.MediaReference,
			Tags:           tags,
		})
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g.Fragments, func(i, j int) bool {
			return g.Fragments[i].Score > g.Fragments[j].Score
		})
		g.FragmentsCount = len(g.Fragments)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MaxScore() > out[j].MaxScore()
	})
	return out
}
