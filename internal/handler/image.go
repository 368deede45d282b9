package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/media"
	"github.com/msomdec/book-exchange/internal/service"
)

const (
	maxAvatarBody = 11 << 20
	maxBookBody   = 62 << 20
	// multipart parts above this spill to temporary files.
	multipartMemory = 8 << 20
)

// readUploads parses a multipart body capped at limit bytes and returns the
// files sent under field. Missing fields yield no uploads.
func readUploads(w http.ResponseWriter, r *http.Request, field string, limit int64) ([]service.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d MB", domain.ErrInvalidInput, limit>>20)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: malformed upload", domain.ErrInvalidInput)
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		if len(data) == 0 {
			continue
		}
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

// MediaHandler serves images kept in the database blob store.
type MediaHandler struct {
	responder
	blobs *media.BlobStore
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(rs responder, blobs *media.BlobStore) *MediaHandler {
	return &MediaHandler{responder: rs, blobs: blobs}
}

// HandleServe writes the stored bytes with their content type. Keys are
// unique per upload, so responses are cacheable indefinitely.
// GET /media/{key...}
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.blobs.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.ErrorContext(r.Context(), "serve media", "key", r.PathValue("key"), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
