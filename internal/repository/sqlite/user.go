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

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, username, email, first_name, last_name, phone,
	house_no, street, landmark, city, country, postal_code,
	profile_completed, avatar_key, avatar_url, password_hash, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Avatar.Key == "" {
		user.Avatar = domain.DefaultAvatar
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.Name.First, user.Name.Last, user.Phone,
		user.Address.HouseNo, user.Address.Street, user.Address.Landmark,
		user.Address.City, user.Address.Country, user.Address.PostalCode,
		user.ProfileCompleted, user.Avatar.Key, user.Avatar.URL, user.PasswordHash, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if user.SellBooks == nil {
		user.SellBooks = []string{}
	}
	if user.BuyBooks == nil {
		user.BuyBooks = []string{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.load(ctx, row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return r.load(ctx, row)
}

func (r *UserRepository) load(ctx context.Context, row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name.First, &u.Name.Last, &u.Phone,
		&u.Address.HouseNo, &u.Address.Street, &u.Address.Landmark,
		&u.Address.City, &u.Address.Country, &u.Address.PostalCode,
		&u.ProfileCompleted, &u.Avatar.Key, &u.Avatar.URL, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	u.SellBooks, u.BuyBooks, err = r.listings(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) listings(ctx context.Context, userID string) (sell, buy []string, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT book_id, kind FROM user_listings WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list user listings: %w", err)
	}
	defer rows.Close()

	sell, buy = []string{}, []string{}
	for rows.Next() {
		var bookID, kind string
		if err := rows.Scan(&bookID, &kind); err != nil {
			return nil, nil, fmt.Errorf("scan user listing: %w", err)
		}
		switch domain.ListingKind(kind) {
		case domain.ListingSell:
			sell = append(sell, bookID)
		case domain.ListingBuy:
			buy = append(buy, bookID)
		}
	}
	return sell, buy, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) error {
	var (
		sets []string
		args []any
	)
	if n := patch.Name; n != nil {
		sets = append(sets, "first_name = ?", "last_name = ?")
		args = append(args, n.First, n.Last)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if a := patch.Address; a != nil {
		sets = append(sets, "house_no = ?", "street = ?", "landmark = ?", "city = ?", "country = ?", "postal_code = ?")
		args = append(args, a.HouseNo, a.Street, a.Landmark, a.City, a.Country, a.PostalCode)
	}
	if av := patch.Avatar; av != nil {
		sets = append(sets, "avatar_key = ?", "avatar_url = ?")
		args = append(args, av.Key, av.URL)
	}
	if patch.ProfileCompleted != nil {
		sets = append(sets, "profile_completed = ?")
		args = append(args, *patch.ProfileCompleted)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
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

func (r *UserRepository) AppendListing(ctx context.Context, userID, bookID string, kind domain.ListingKind) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_listings (user_id, book_id, kind) VALUES (?, ?, ?)",
		userID, bookID, string(kind),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("append %s listing: %w", kind, err)
	}
	return nil
}
