package media

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/msomdec/book-exchange/internal/domain"
	"google.golang.org/api/option"
)

// GCSConfig configures a Google Cloud Storage bucket. When CredentialsFile is
// empty Application Default Credentials are used.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSStore stores images as objects in a GCS bucket with public read access.
type GCSStore struct {
	client *storage.Client
	bucket string
}

var _ domain.MediaStore = (*GCSStore)(nil)

func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", upstream("put", key, err)
	}
	if err := w.Close(); err != nil {
		return "", upstream("put", key, err)
	}
	return GCSPublicURL(s.bucket, key), nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return upstream("delete", key, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// GCSPublicURL is the public HTTPS URL of an object.
func GCSPublicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
