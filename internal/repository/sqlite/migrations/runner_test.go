package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/msomdec/book-exchange/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func TestRunMigrations(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, avatar_key, avatar_url, password_hash) VALUES (?, ?, ?, ?, ?, ?)",
		"u1", "reader", "reader@example.com", "default-avatar", "/static/images/profile.svg", "hash123",
	)
	if err != nil {
		t.Fatalf("insert into users: %v", err)
	}

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 migration records, got %d", count)
	}
}
