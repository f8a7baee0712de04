package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Source identifies the video a clip is cut from.
type Source struct {
	VideoID  string
	Location string
}

// Cutter cuts [start, end) of src into the file dst.
type Cutter interface {
	Cut(ctx context.Context, src string, start, end float64, dst string) error
}

// Clipper cuts fragments out of source videos and uploads them.
type Clipper struct {
	cutter  Cutter
	store   *BlobStore
	tempDir string
}

// NewClipper creates a clipper that stages clips in tempDir.
func NewClipper(cutter Cutter, store *BlobStore, tempDir string) *Clipper {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Clipper{cutter: cutter, store: store, tempDir: tempDir}
}

// ClipKey is the storage key of the clip for [start, end) of a video. The
// key depends only on its inputs, so repeated uploads overwrite.
func ClipKey(videoID string, start, end float64) string {
	return fmt.Sprintf("fragments/%s/%.3f_%.3f.mp4", videoID, start, end)
}

// CutAndStore cuts [start, end) of src, uploads it and returns its media
// reference: the public URL, or the storage key when no public URL is set.
// The local file is removed afterwards.
func (c *Clipper) CutAndStore(ctx context.Context, src Source, start, end float64) (string, error) {
	dir, err := os.MkdirTemp(c.tempDir, "clip-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, "clip.mp4")
	if err := c.cutter.Cut(ctx, src.Location, start, end, local); err != nil {
		return "", err
	}

	f, err := os.Open(local)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	key, err := c.store.Put(ctx, ClipKey(src.VideoID, start, end), f, "video/mp4")
	if err != nil {
		return "", err
	}
	return c.store.URL(key), nil
}
