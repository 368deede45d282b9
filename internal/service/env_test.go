package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/media"
	"github.com/msomdec/book-exchange/internal/repository/sqlite"
	"github.com/msomdec/book-exchange/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

// testEnv wires the services over a temp-dir SQLite database. Media goes
// through the BLOB store unless a test swaps in its own.
type testEnv struct {
	db     *sqlite.DB
	media  domain.MediaStore
	auth   *service.AuthService
	books  *service.BookService
	users  *service.UserService
	images *service.ImageService
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return newTestEnvWithMedia(t, db, media.NewBlobStore(db.FileStore()))
}

func newTestEnvWithMedia(t *testing.T, db *sqlite.DB, store domain.MediaStore) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	images := service.NewImageService(store, logger)
	return &testEnv{
		db:     db,
		media:  store,
		auth:   service.NewAuthService(db.Users(), testJWTSecret, 4),
		books:  service.NewBookService(db.Books(), db.Users(), images),
		users:  service.NewUserService(db.Users(), db.Books(), images),
		images: images,
	}
}

// register creates a user through the auth service.
func (e *testEnv) register(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), service.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// completeProfile fills the profile and returns the refreshed user.
func (e *testEnv) completeProfile(t *testing.T, u *domain.User) *domain.User {
	t.Helper()
	updated, err := e.users.UpdateProfile(context.Background(), u, u.ID, validProfile())
	if err != nil {
		t.Fatalf("complete profile for %s: %v", u.Username, err)
	}
	return updated
}

// reload fetches the current stored state of a user.
func (e *testEnv) reload(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.db.Users().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload user %s: %v", id, err)
	}
	return u
}

func (e *testEnv) sell(t *testing.T, seller *domain.User, title string, price float64, photos ...service.Upload) *domain.Book {
	t.Helper()
	in := validBook()
	in.Title = title
	in.Price = price
	book, err := e.books.Sell(context.Background(), seller, seller.ID, in, photos)
	if err != nil {
		t.Fatalf("sell %s: %v", title, err)
	}
	return book
}

func validBook() service.BookInput {
	return service.BookInput{
		Title:  "The Hobbit",
		ISBN:   "978-0261103344",
		Year:   "1937",
		Topic:  "Fantasy",
		Author: "J. R. R. Tolkien",
		Price:  7.5,
	}
}

func validProfile() service.ProfileInput {
	return service.ProfileInput{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Phone:      "555-0100",
		HouseNo:    "12",
		Street:     "St James's Square",
		City:       "London",
		Country:    "UK",
		PostalCode: "SW1Y",
	}
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
)

func jpegUpload(name string) service.Upload {
	return service.Upload{Filename: name, ContentType: "image/jpeg", Data: append(append([]byte{}, jpegMagic...), name...)}
}

func pngUpload(name string) service.Upload {
	return service.Upload{Filename: name, ContentType: "image/png", Data: append(append([]byte{}, pngMagic...), name...)}
}

// failingMedia is a MediaStore whose operations can be made to fail. It keeps
// stored keys so tests can see what was left behind.
type failingMedia struct {
	mu         sync.Mutex
	failPut    bool
	failPutAt  int // fail the n-th Put (1-based) when > 0
	failDelete bool
	puts       int
	objects    map[string]bool
	deleted    []string
}

func newFailingMedia() *failingMedia {
	return &failingMedia{objects: make(map[string]bool)}
}

func (m *failingMedia) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPut || (m.failPutAt > 0 && m.puts == m.failPutAt) {
		return "", fmt.Errorf("put %s: %w", key, domain.ErrUpstreamStorage)
	}
	m.objects[key] = true
	return "https://media.example.com/" + key, nil
}

func (m *failingMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	if m.failDelete {
		return fmt.Errorf("delete %s: %w", key, domain.ErrUpstreamStorage)
	}
	delete(m.objects, key)
	return nil
}

func (m *failingMedia) stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *failingMedia) deleteAttempts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
