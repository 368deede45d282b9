package domain

import "context"

// ImageRef points at an image held by the media store.
type ImageRef struct {
	Key string // storage key, used for deletion
	URL string // retrieval path rendered into pages
}

// MediaStore holds uploaded images. The application never keeps image bytes
// itself beyond what a MediaStore implementation decides to.
type MediaStore interface {
	// Put stores data under key and returns the URL it can be fetched from.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// FileStore abstracts raw file byte storage.
// The SQLite implementation stores BLOBs; it backs the "db" media driver.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}
