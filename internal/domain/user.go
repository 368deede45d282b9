package domain

import (
	"context"
	"time"
)

// DefaultAvatar is the avatar every user starts with. Its key never refers to
// an object in the media store, so it must not be deleted.
var DefaultAvatar = ImageRef{
	Key: "default-avatar",
	URL: "/static/images/profile.svg",
}

// PersonName holds a user's display name.
type PersonName struct {
	First string
	Last  string
}

// Address is the postal address collected on profile completion.
type Address struct {
	HouseNo    string
	Street     string
	Landmark   string
	City       string
	Country    string
	PostalCode string
}

// User represents a registered user of the marketplace.
type User struct {
	ID               string
	Username         string
	Email            string
	Name             PersonName
	Phone            string
	Address          Address
	ProfileCompleted bool
	Avatar           ImageRef
	SellBooks        []string // Book IDs listed by the user, in listing order
	BuyBooks         []string // Book IDs reserved by the user, in reservation order
	PasswordHash     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUser returns a user with the registration defaults applied.
func NewUser(username, email string) *User {
	return &User{
		Username:  username,
		Email:     email,
		Avatar:    DefaultAvatar,
		SellBooks: []string{},
		BuyBooks:  []string{},
	}
}

// HasCustomAvatar reports whether the avatar lives in the media store.
func (u *User) HasCustomAvatar() bool {
	return u.Avatar.Key != "" && u.Avatar.Key != DefaultAvatar.Key
}

// DisplayName returns the full name once known, the username otherwise.
func (u *User) DisplayName() string {
	if u.Name.First == "" && u.Name.Last == "" {
		return u.Username
	}
	if u.Name.Last == "" {
		return u.Name.First
	}
	return u.Name.First + " " + u.Name.Last
}

// UserPatch is a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name             *PersonName
	Phone            *string
	Address          *Address
	Avatar           *ImageRef
	ProfileCompleted *bool
}

// ListingKind selects which of a user's book collections is addressed.
type ListingKind string

const (
	ListingSell ListingKind = "sell"
	ListingBuy  ListingKind = "buy"
)

// ProfileView is a user with their listing collections resolved to books.
type ProfileView struct {
	User      *User
	SellBooks []Book
	BuyBooks  []Book
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, id string, patch UserPatch) error
	// AppendListing adds bookID to the end of the chosen collection.
	// Appending the same book twice stores it twice.
	AppendListing(ctx context.Context, userID, bookID string, kind ListingKind) error
}
