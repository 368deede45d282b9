package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/book-exchange/internal/domain"
)

// bookRepo implements domain.BookRepository using SQLite.
type bookRepo struct {
	db *sql.DB
}

// NewBookRepository creates a new SQLite-backed BookRepository.
func NewBookRepository(db *DB) domain.BookRepository {
	return &bookRepo{db: db.SqlDB}
}

const bookColumns = `id, title, isbn, year, topic, author, price, seller_id, buyer_id, created_at`

func (r *bookRepo) Create(ctx context.Context, book *domain.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.ISBN, book.Year, book.Topic, book.Author, book.Price,
		book.SellerID, nullString(book.BuyerID), now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("seller %s: %w", book.SellerID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	for i, img := range book.Images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_images (book_id, sort_order, storage_key, url) VALUES (?, ?, ?, ?)`,
			book.ID, i, img.Key, img.URL,
		); err != nil {
			return fmt.Errorf("insert book image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	book.CreatedAt = now
	return nil
}

func (r *bookRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return getBook(ctx, r.db, id)
}

func (r *bookRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	books := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		b, err := getBook(ctx, r.db, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, nil
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *bookRepo) List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	order := "created_at DESC, id"
	switch filter.Sort {
	case domain.SortPriceAsc:
		order = "price ASC, created_at DESC"
	case domain.SortPriceDesc:
		order = "price DESC, created_at DESC"
	}

	like := "%" + likeEscaper.Replace(filter.Query) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books
		 WHERE ? = ''
		    OR title LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\'
		    OR topic LIKE ? ESCAPE '\' OR isbn LIKE ? ESCAPE '\'
		 ORDER BY `+order,
		filter.Query, like, like, like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		books = append(books, *b)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Images are loaded after the cursor is closed; the pool holds one connection.
	for i := range books {
		if books[i].Images, err = loadImages(ctx, r.db, books[i].ID); err != nil {
			return nil, err
		}
	}
	return books, nil
}

func (r *bookRepo) Update(ctx context.Context, id string, patch domain.BookPatch) error {
	if patch.BuyerID == nil {
		if _, err := getBook(ctx, r.db, id); err != nil {
			return err
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE books SET buyer_id = ? WHERE id = ?", nullString(*patch.BuyerID), id)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("buyer %s: %w", *patch.BuyerID, domain.ErrNotFound)
		}
		return fmt.Errorf("update book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookRepo) Delete(ctx context.Context, id string) (*domain.Book, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	book, err := getBook(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM user_listings WHERE user_id = ? AND book_id = ? AND kind = ?",
		book.SellerID, id, string(domain.ListingSell),
	); err != nil {
		return nil, fmt.Errorf("pull sell listing: %w", err)
	}

	// book_images rows go with the book via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("delete book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return book, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (*domain.Book, error) {
	b := &domain.Book{}
	var buyer sql.NullString
	if err := s.Scan(&b.ID, &b.Title, &b.ISBN, &b.Year, &b.Topic, &b.Author, &b.Price,
		&b.SellerID, &buyer, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	b.BuyerID = buyer.String
	return b, nil
}

func getBook(ctx context.Context, q querier, id string) (*domain.Book, error) {
	b, err := scanBook(q.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if b.Images, err = loadImages(ctx, q, id); err != nil {
		return nil, err
	}
	return b, nil
}

func loadImages(ctx context.Context, q querier, bookID string) ([]domain.ImageRef, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT storage_key, url FROM book_images WHERE book_id = ? ORDER BY sort_order", bookID)
	if err != nil {
		return nil, fmt.Errorf("list book images: %w", err)
	}
	defer rows.Close()

	images := []domain.ImageRef{}
	for rows.Next() {
		var img domain.ImageRef
		if err := rows.Scan(&img.Key, &img.URL); err != nil {
			return nil, fmt.Errorf("scan book image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
