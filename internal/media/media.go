// Package media provides domain.MediaStore backends: SQLite BLOBs served by
// the application itself, S3-compatible object storage, and Google Cloud
// Storage.
package media

import (
	"fmt"

	"github.com/msomdec/book-exchange/internal/domain"
)

// URLPrefix is where the application serves BLOB-backed media.
const URLPrefix = "/media/"

func upstream(op, key string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, key, domain.ErrUpstreamStorage, err)
}
