package video

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"

	"github.com/reelearn/reelearn/pkg/fragment"
	"github.com/reelearn/reelearn/pkg/search"
)

// ErrNotFound is returned when a video does not exist.
var ErrNotFound = errors.New("video not found")

// Repository provides persistence for videos and their fragments.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a new video repository.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the video tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db(ctx, false).AutoMigrate(&Video{}, &Fragment{})
}

// CreateVideo persists a new video in the pending state.
func (r *Repository) CreateVideo(ctx context.Context, v *Video) error {
	if v.Status == "" {
		v.Status = StatusPending
	}
	return r.db(ctx, false).Create(v).Error
}

// GetVideo returns a video by ID.
func (r *Repository) GetVideo(ctx context.Context, id string) (*Video, error) {
	var v Video
	err := r.db(ctx, true).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVideos returns videos, newest first.
func (r *Repository) ListVideos(ctx context.Context, limit, offset int) ([]Video, error) {
	var videos []Video
	q := r.db(ctx, true).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&videos).Error
	return videos, err
}

// UpdateStatus moves a video to status. reason is stored for failures.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, reason string) error {
	res := r.db(ctx, false).Model(&Video{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "error": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveFragments stores the fragments of a video in one transaction and
// returns their IDs in order. Earlier fragments of the video are replaced so
// reprocessing does not duplicate them. Every fragment must carry a media
// reference.
func (r *Repository) SaveFragments(ctx context.Context, videoID string, frags []fragment.VideoFragment) ([]string, error) {
	rows := make([]Fragment, 0, len(frags))
	for i, f := range frags {
		if f.MediaReference == "" {
			return nil, fmt.Errorf("fragment %d [%v, %v] has no media reference", i, f.Start, f.End)
		}
		rows = append(rows, Fragment{
			VideoID:          videoID,
			Position:         i,
			Start:            f.Start,
			End:              f.End,
			Text:             f.Text,
			Sentences:        TagsJSON(f.Sentences),
			Language:         string(f.Language),
			Tags:             TagsJSON(f.Tags),
			MediaReference:   f.MediaReference,
			SpeechConfidence: f.SpeechConfidence,
			NoSpeechProb:     f.NoSpeechProb,
		})
	}

	err := r.db(ctx, false).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&Fragment{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// ListFragments returns a video's fragments in playback order.
func (r *Repository) ListFragments(ctx context.Context, videoID string) ([]Fragment, error) {
	var frags []Fragment
	err := r.db(ctx, true).
		Where("video_id = ?", videoID).
		Order("position ASC").
		Find(&frags).Error
	return frags, err
}

// ResolveFragments loads fragments with their videos. IDs that do not exist
// are absent from the result.
func (r *Repository) ResolveFragments(ctx context.Context, ids []string) (map[string]search.FragmentRecord, error) {
	out := make(map[string]search.FragmentRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var frags []Fragment
	err := r.db(ctx, true).
		Preload("Video").
		Where("id IN ?", ids).
		Find(&frags).Error
	if err != nil {
		return nil, err
	}

	for _, f := range frags {
		out[f.ID] = ToRecord(f)
	}
	return out, nil
}

// ToRecord converts a stored fragment to the search view.
func ToRecord(f Fragment) search.FragmentRecord {
	rec := search.FragmentRecord{
		ID:             f.ID,
		Text:           f.Text,
		Start:          f.Start,
		End:            f.End,
		MediaReference: f.MediaReference,
		Tags:           []string(f.Tags),
	}
	if f.Video != nil {
		rec.Video = &search.VideoInfo{
			ID:          f.Video.ID,
			Name:        f.Video.Name,
			Description: f.Video.Description,
		}
	}
	return rec
}

// ToDocument converts a stored fragment to its search index document.
func ToDocument(f Fragment) search.Document {
	return search.Document{
		FragmentID:       f.ID,
		VideoID:          f.VideoID,
		Text:             f.Text,
		Tags:             []string(f.Tags),
		Language:         f.Language,
		Start:            f.Start,
		End:              f.End,
		SpeechConfidence: f.SpeechConfidence,
		NoSpeechProb:     f.NoSpeechProb,
	}
}
