package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/book-exchange/internal/domain"
)

// BookInput is the sell form.
type BookInput struct {
	Title  string  `label:"Title" validate:"required,max=200"`
	ISBN   string  `label:"ISBN" validate:"required,max=32"`
	Year   string  `label:"Year" validate:"required,max=16"`
	Topic  string  `label:"Topic" validate:"required,max=100"`
	Author string  `label:"Author" validate:"required,max=200"`
	Price  float64 `label:"Price" validate:"gt=0"`
}

// BookService runs the listing workflow: sell, reserve and delete.
type BookService struct {
	books  domain.BookRepository
	users  domain.UserRepository
	images *ImageService
}

// NewBookService creates a new BookService.
func NewBookService(books domain.BookRepository, users domain.UserRepository, images *ImageService) *BookService {
	return &BookService{books: books, users: users, images: images}
}

func bookPath(id string) string { return "/book/" + id }

// Sell lists a new book for sellerID with the uploaded photos.
func (s *BookService) Sell(ctx context.Context, viewer *domain.User, sellerID string, in BookInput, photos []Upload) (*domain.Book, error) {
	if err := Evaluate(
		RequireAuthenticated(viewer),
		RequireSameUser(viewer, sellerID, "/sellbook"),
	); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	refs, err := s.images.StoreAll(ctx, folderBooks, photos)
	if err != nil {
		return nil, fmt.Errorf("store photos: %w", err)
	}

	book := &domain.Book{
		Title:    in.Title,
		ISBN:     in.ISBN,
		Year:     in.Year,
		Topic:    in.Topic,
		Author:   in.Author,
		Price:    in.Price,
		Images:   refs,
		SellerID: sellerID,
	}
	if err := s.books.Create(ctx, book); err != nil {
		s.images.DeleteAll(context.WithoutCancel(ctx), refs)
		return nil, fmt.Errorf("create book: %w", err)
	}

	if err := s.users.AppendListing(ctx, sellerID, book.ID, domain.ListingSell); err != nil {
		return nil, fmt.Errorf("append sell listing: %w", err)
	}
	return book, nil
}

// Reserve records buyerID as the buyer of a book. A book that already has a
// buyer is reserved again and the new buyer replaces the old one.
func (s *BookService) Reserve(ctx context.Context, viewer *domain.User, bookID, buyerID string) (*domain.Book, error) {
	back := bookPath(bookID)
	if err := Evaluate(
		RequireAuthenticated(viewer),
		RequireSameUser(viewer, buyerID, back),
		RequireProfileComplete(viewer, back),
	); err != nil {
		return nil, err
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if err := Evaluate(RequireDistinctParties(buyerID, book, back)); err != nil {
		return nil, err
	}

	if err := s.books.Update(ctx, bookID, domain.BookPatch{BuyerID: &buyerID}); err != nil {
		return nil, fmt.Errorf("set buyer: %w", err)
	}
	if err := s.users.AppendListing(ctx, buyerID, bookID, domain.ListingBuy); err != nil {
		return nil, fmt.Errorf("append buy listing: %w", err)
	}

	book.BuyerID = buyerID
	return book, nil
}

// Delete removes a listing. Stored photos are removed first on a best-effort
// basis, then the record and the seller's reference to it. Buyers keep their
// reference.
func (s *BookService) Delete(ctx context.Context, viewer *domain.User, bookID, userID string) error {
	back := bookPath(bookID)
	if err := Evaluate(
		RequireAuthenticated(viewer),
		RequireSameUser(viewer, userID, back),
	); err != nil {
		return err
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}
	if err := Evaluate(RequireSeller(viewer, book, back)); err != nil {
		return err
	}

	s.images.DeleteAll(ctx, book.Images)

	if _, err := s.books.Delete(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// Detail returns a book with its seller and, when reserved, its buyer.
func (s *BookService) Detail(ctx context.Context, id string) (*domain.BookDetail, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	seller, err := s.users.GetByID(ctx, book.SellerID)
	if err != nil {
		return nil, fmt.Errorf("get seller: %w", err)
	}

	detail := &domain.BookDetail{Book: book, Seller: seller}
	if book.BuyerID != "" {
		buyer, err := s.users.GetByID(ctx, book.BuyerID)
		switch {
		case err == nil:
			detail.Buyer = buyer
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("get buyer: %w", err)
		}
	}
	return detail, nil
}

// List returns the books matching filter.
func (s *BookService) List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	books, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}
