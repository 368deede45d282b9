package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, MongoDB) owns its own schema setup,
// ensuring the entire entity store is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Users() UserRepository
	Books() BookRepository
	Close() error
}
