package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	// Bucket drivers selected by URL scheme.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobStore keeps clips in a gocloud bucket (s3://, file://, mem://).
type BlobStore struct {
	bucket    *blob.Bucket
	publicURL string
}

// OpenBlobStore opens the bucket at bucketURL. publicURL, when set, is the
// base URL clients use to fetch stored keys.
func OpenBlobStore(ctx context.Context, bucketURL, publicURL string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %q: %w", bucketURL, err)
	}
	return NewBlobStore(bucket, publicURL), nil
}

// NewBlobStore wraps an open bucket.
func NewBlobStore(bucket *blob.Bucket, publicURL string) *BlobStore {
	return &BlobStore{bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Put writes r under key, replacing any previous object, and returns the key.
func (s *BlobStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.Upload(ctx, key, r, opts); err != nil {
		return "", fmt.Errorf("upload %q: %w", key, err)
	}
	return key, nil
}

// Exists reports whether key is stored.
func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, key)
}

// URL returns the public URL of key, or the key itself when no public base
// URL is configured.
func (s *BlobStore) URL(key string) string {
	if s.publicURL == "" {
		return key
	}
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}

// Close closes the bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
