package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection and hands out repositories bound to it.
type DB struct {
	SqlDB *sql.DB
}

var _ domain.Database = (*DB)(nil)

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection serializes writers; the pragmas above are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

func (d *DB) Books() domain.BookRepository {
	return NewBookRepository(d)
}

// FileStore returns a BLOB-backed file store sharing this database.
func (d *DB) FileStore() domain.FileStore {
	return &fileStore{db: d.SqlDB}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueConstraintError(err error) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) &&
		(strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "unique constraint"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
