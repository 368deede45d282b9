package media

import (
	"context"
	"errors"

	"github.com/msomdec/book-exchange/internal/domain"
)

// BlobStore keeps image bytes in a domain.FileStore and hands out URLs under
// URLPrefix.
type BlobStore struct {
	files domain.FileStore
}

var _ domain.MediaStore = (*BlobStore)(nil)

func NewBlobStore(files domain.FileStore) *BlobStore {
	return &BlobStore{files: files}
}

func (s *BlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := s.files.Save(ctx, key, contentType, data); err != nil {
		return "", upstream("put", key, err)
	}
	return URLPrefix + key, nil
}

// Delete removes key. A key that is already gone is not an error.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return upstream("delete", key, err)
	}
	return nil
}

// Get returns the stored bytes and content type for key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	return s.files.Get(ctx, key)
}
