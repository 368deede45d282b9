package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

const (
	maxImageSize      = 10 * 1024 * 1024 // 10MB
	maxBookPhotos     = 6
	uploadConcurrency = 4

	folderBooks = "books"
	folderUsers = "users"
)

// Upload is an image received from a form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageService validates uploads and moves them in and out of the media store.
type ImageService struct {
	store  domain.MediaStore
	logger *slog.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(store domain.MediaStore, logger *slog.Logger) *ImageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{store: store, logger: logger}
}

// checkUpload sniffs the payload and returns the content type it will be
// stored under. The declared type is not trusted.
func checkUpload(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, uploadName(u))
	}
	if len(u.Data) > maxImageSize {
		return "", fmt.Errorf("%w: %s exceeds 10MB limit", domain.ErrInvalidInput, uploadName(u))
	}
	ct := http.DetectContentType(u.Data)
	if ct != "image/jpeg" && ct != "image/png" {
		return "", fmt.Errorf("%w: only JPEG and PNG images are accepted", domain.ErrInvalidInput)
	}
	return ct, nil
}

func uploadName(u Upload) string {
	if u.Filename == "" {
		return "image"
	}
	return u.Filename
}

func extension(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}

// Store validates and saves one upload under folder.
func (s *ImageService) Store(ctx context.Context, folder string, u Upload) (domain.ImageRef, error) {
	ct, err := checkUpload(u)
	if err != nil {
		return domain.ImageRef{}, err
	}

	key := folder + "/" + ksuid.New().String() + extension(ct)
	url, err := s.store.Put(ctx, key, ct, u.Data)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("store image: %w", err)
	}
	return domain.ImageRef{Key: key, URL: url}, nil
}

// StoreAll saves uploads concurrently and returns their references in upload
// order. Every upload is validated before any is stored. If one fails, the
// ones already stored are removed.
func (s *ImageService) StoreAll(ctx context.Context, folder string, uploads []Upload) ([]domain.ImageRef, error) {
	if len(uploads) > maxBookPhotos {
		return nil, fmt.Errorf("%w: at most %d photos per book", domain.ErrInvalidInput, maxBookPhotos)
	}
	for _, u := range uploads {
		if _, err := checkUpload(u); err != nil {
			return nil, err
		}
	}

	refs := make([]domain.ImageRef, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, u := range uploads {
		g.Go(func() error {
			ref, err := s.Store(gctx, folder, u)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		stored := make([]domain.ImageRef, 0, len(refs))
		for _, r := range refs {
			if r.Key != "" {
				stored = append(stored, r)
			}
		}
		s.DeleteAll(context.WithoutCancel(ctx), stored)
		return nil, err
	}
	return refs, nil
}

// DeleteAll attempts to remove every image and returns how many could not be
// removed. Failures are logged, never returned. The default avatar is skipped.
func (s *ImageService) DeleteAll(ctx context.Context, refs []domain.ImageRef) int {
	failed := 0
	for _, ref := range refs {
		if ref.Key == "" || ref.Key == domain.DefaultAvatar.Key {
			continue
		}
		if err := s.store.Delete(ctx, ref.Key); err != nil {
			failed++
			s.logger.WarnContext(ctx, "image cleanup failed", "key", ref.Key, "error", err)
		}
	}
	return failed
}
