package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msomdec/book-exchange/internal/domain"
)

// fileStore implements domain.FileStore using SQLite BLOBs.
type fileStore struct {
	db *sql.DB
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO file_blobs (storage_key, content_type, data) VALUES (?, ?, ?)",
		key, contentType, data,
	)
	if err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT data, content_type FROM file_blobs WHERE storage_key = ?", key,
	).Scan(&data, &contentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get file blob: %w", err)
	}
	return data, contentType, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM file_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
