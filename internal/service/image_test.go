package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/service"
)

func TestImageService_Store_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		upload service.Upload
	}{
		{"empty", service.Upload{Filename: "a.jpg"}},
		{"not an image", service.Upload{Filename: "a.txt", ContentType: "image/jpeg", Data: []byte("hello")}},
		{"gif", service.Upload{Filename: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a....")}},
		{"too large", service.Upload{Filename: "big.jpg", Data: append(append([]byte{}, jpegMagic...), bytes.Repeat([]byte{0}, 10*1024*1024)...)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.images.Store(ctx, "books", tc.upload)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestImageService_Store_KeysAndURLs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jpg, err := env.images.Store(ctx, "users", jpegUpload("me.jpg"))
	if err != nil {
		t.Fatalf("Store jpeg: %v", err)
	}
	if !strings.HasPrefix(jpg.Key, "users/") || !strings.HasSuffix(jpg.Key, ".jpg") {
		t.Fatalf("unexpected key %q", jpg.Key)
	}
	if jpg.URL != "/media/"+jpg.Key {
		t.Fatalf("unexpected url %q", jpg.URL)
	}

	png, err := env.images.Store(ctx, "users", pngUpload("me.png"))
	if err != nil {
		t.Fatalf("Store png: %v", err)
	}
	if !strings.HasSuffix(png.Key, ".png") || png.Key == jpg.Key {
		t.Fatalf("unexpected key %q", png.Key)
	}
}

func TestImageService_StoreAll_PreservesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	uploads := []service.Upload{jpegUpload("1"), pngUpload("2"), jpegUpload("3"), jpegUpload("4"), pngUpload("5")}
	refs, err := env.images.StoreAll(ctx, "books", uploads)
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}
	if len(refs) != len(uploads) {
		t.Fatalf("expected %d refs, got %d", len(uploads), len(refs))
	}

	files := env.db.FileStore()
	for i, ref := range refs {
		data, _, err := files.Get(ctx, ref.Key)
		if err != nil {
			t.Fatalf("Get %s: %v", ref.Key, err)
		}
		if !bytes.Equal(data, uploads[i].Data) {
			t.Fatalf("ref %d does not hold upload %d", i, i)
		}
	}
}

func TestImageService_StoreAll_TooMany(t *testing.T) {
	env := newTestEnv(t)

	uploads := make([]service.Upload, 7)
	for i := range uploads {
		uploads[i] = jpegUpload("p")
	}
	if _, err := env.images.StoreAll(context.Background(), "books", uploads); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestImageService_StoreAll_FailureRemovesStored(t *testing.T) {
	store := newFailingMedia()
	store.failPutAt = 3
	env := newTestEnvWithMedia(t, newTestDB(t), store)

	uploads := []service.Upload{jpegUpload("1"), jpegUpload("2"), jpegUpload("3"), jpegUpload("4")}
	_, err := env.images.StoreAll(context.Background(), "books", uploads)
	if !errors.Is(err, domain.ErrUpstreamStorage) {
		t.Fatalf("expected ErrUpstreamStorage, got %v", err)
	}
	if n := store.stored(); n != 0 {
		t.Fatalf("expected stored photos to be removed, %d remain", n)
	}
}

func TestImageService_DeleteAll_AttemptsEveryImage(t *testing.T) {
	store := newFailingMedia()
	store.failDelete = true
	env := newTestEnvWithMedia(t, newTestDB(t), store)

	refs := []domain.ImageRef{{Key: "a"}, domain.DefaultAvatar, {Key: "b"}, {Key: "c"}}
	failed := env.images.DeleteAll(context.Background(), refs)

	if failed != 3 {
		t.Fatalf("expected 3 failures, got %d", failed)
	}
	got := store.deleteAttempts()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("expected attempts on a, b, c only, got %v", got)
	}
}
