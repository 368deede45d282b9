package domain

import (
	"context"
	"time"
)

// BookState is derived from whether a buyer is set.
type BookState string

const (
	BookListed   BookState = "listed"
	BookReserved BookState = "reserved"
)

// Book is a used book put up for sale by a seller.
type Book struct {
	ID        string
	Title     string
	ISBN      string
	Year      string
	Topic     string
	Author    string
	Price     float64
	Images    []ImageRef
	SellerID  string
	BuyerID   string // empty until reserved
	CreatedAt time.Time
}

// State reports whether the book has been reserved.
func (b *Book) State() BookState {
	if b.BuyerID != "" {
		return BookReserved
	}
	return BookListed
}

// BookDetail is a book with seller and buyer resolved.
type BookDetail struct {
	Book   *Book
	Seller *User
	Buyer  *User // nil while listed
}

// BookPatch is a partial update. Nil fields are left untouched.
type BookPatch struct {
	BuyerID *string
}

// BookSort names a listing order.
type BookSort string

const (
	SortNewest    BookSort = "newest"
	SortPriceAsc  BookSort = "price_asc"
	SortPriceDesc BookSort = "price_desc"
)

// ParseBookSort maps a query value to a sort, defaulting to newest first.
func ParseBookSort(s string) BookSort {
	switch BookSort(s) {
	case SortPriceAsc, SortPriceDesc:
		return BookSort(s)
	default:
		return SortNewest
	}
}

// BookFilter narrows and orders the browse listing.
type BookFilter struct {
	Query string // substring match on title, author, topic or ISBN
	Sort  BookSort
}

// BookRepository defines persistence operations for books.
type BookRepository interface {
	Create(ctx context.Context, book *Book) error
	GetByID(ctx context.Context, id string) (*Book, error)
	// GetByIDs returns the books in the order of ids, skipping ids that no
	// longer resolve.
	GetByIDs(ctx context.Context, ids []string) ([]Book, error)
	List(ctx context.Context, filter BookFilter) ([]Book, error)
	Update(ctx context.Context, id string, patch BookPatch) error
	// Delete removes the book and pulls it from its seller's sell listing.
	// The removed record is returned so its images can be cleaned up.
	Delete(ctx context.Context, id string) (*Book, error)
}
