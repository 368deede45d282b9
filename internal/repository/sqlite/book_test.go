package sqlite_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/msomdec/book-exchange/internal/domain"
)

func newBook(sellerID, title string, price float64) *domain.Book {
	return &domain.Book{
		Title:    title,
		ISBN:     "978-0000000000",
		Year:     "1999",
		Topic:    "Fiction",
		Author:   "A. Writer",
		Price:    price,
		SellerID: sellerID,
		Images: []domain.ImageRef{
			{Key: "books/" + title + "-1", URL: "/media/books/" + title + "-1"},
			{Key: "books/" + title + "-2", URL: "/media/books/" + title + "-2"},
		},
	}
}

func TestBookRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := db.Books()
	ctx := context.Background()

	seller := seedUser(t, db, "seller")
	book := newBook(seller.ID, "Dune", 12.5)

	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if book.ID == "" {
		t.Fatal("expected book ID to be set")
	}

	found, err := repo.GetByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.SellerID != seller.ID {
		t.Fatalf("expected seller %s, got %s", seller.ID, found.SellerID)
	}
	if found.State() != domain.BookListed {
		t.Fatalf("expected listed, got %s", found.State())
	}
	if len(found.Images) != 2 || found.Images[0].Key != "books/Dune-1" {
		t.Fatalf("images not preserved in order: %+v", found.Images)
	}
}

func TestBookRepository_Create_UnknownSeller(t *testing.T) {
	db := newTestDB(t)

	err := db.Books().Create(context.Background(), newBook("ghost", "Orphan", 1))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookRepository_UpdateBuyer(t *testing.T) {
	db := newTestDB(t)
	repo := db.Books()
	ctx := context.Background()

	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	book := newBook(seller.ID, "Emma", 3)
	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Update(ctx, book.ID, domain.BookPatch{BuyerID: &buyer.ID}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, _ := repo.GetByID(ctx, book.ID)
	if found.BuyerID != buyer.ID || found.State() != domain.BookReserved {
		t.Fatalf("expected reserved by %s, got %+v", buyer.ID, found)
	}

	missing := "missing"
	if err := repo.Update(ctx, "nope", domain.BookPatch{BuyerID: &missing}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookRepository_GetByIDs_SkipsMissing(t *testing.T) {
	db := newTestDB(t)
	repo := db.Books()
	ctx := context.Background()

	seller := seedUser(t, db, "seller")
	a := newBook(seller.ID, "A", 1)
	b := newBook(seller.ID, "B", 2)
	for _, bk := range []*domain.Book{a, b} {
		if err := repo.Create(ctx, bk); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	books, err := repo.GetByIDs(ctx, []string{b.ID, "gone", a.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(books) != 2 || books[0].ID != b.ID || books[1].ID != a.ID {
		t.Fatalf("expected [B A], got %+v", books)
	}
}

func TestBookRepository_List_FilterAndSort(t *testing.T) {
	db := newTestDB(t)
	repo := db.Books()
	ctx := context.Background()

	seller := seedUser(t, db, "seller")
	for _, bk := range []*domain.Book{
		newBook(seller.ID, "Middlemarch", 20),
		newBook(seller.ID, "Moby Dick", 5),
		newBook(seller.ID, "Ulysses", 12),
	} {
		if err := repo.Create(ctx, bk); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter domain.BookFilter
		want   []string
	}{
		{"price ascending", domain.BookFilter{Sort: domain.SortPriceAsc}, []string{"Moby Dick", "Ulysses", "Middlemarch"}},
		{"price descending", domain.BookFilter{Sort: domain.SortPriceDesc}, []string{"Middlemarch", "Ulysses", "Moby Dick"}},
		{"query", domain.BookFilter{Query: "M", Sort: domain.SortPriceAsc}, []string{"Moby Dick", "Middlemarch"}},
		{"no match", domain.BookFilter{Query: "zzz"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			books, err := repo.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(books) != len(tc.want) {
				t.Fatalf("expected %d books, got %d", len(tc.want), len(books))
			}
			for i, title := range tc.want {
				if books[i].Title != title {
					t.Fatalf("position %d: expected %q, got %q", i, title, books[i].Title)
				}
				if len(books[i].Images) != 2 {
					t.Fatalf("expected images loaded for %q", title)
				}
			}
		})
	}
}

func TestBookRepository_List_QueryIsLiteral(t *testing.T) {
	db := newTestDB(t)
	repo := db.Books()
	ctx := context.Background()

	seller := seedUser(t, db, "seller")
	for _, title := range []string{"Dune", "100% Cotton", "snake_case", `C:\Books`} {
		if err := repo.Create(ctx, newBook(seller.ID, title, 1)); err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"%", []string{"100% Cotton"}},
		{"_", []string{"snake_case"}},
		{"D_ne", nil},
		{`\`, []string{`C:\Books`}},
		{"dune", []string{"Dune"}},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			books, err := repo.List(ctx, domain.BookFilter{Query: tc.query})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var got []string
			for _, b := range books {
				got = append(got, b.Title)
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("query %q: expected %v, got %v", tc.query, tc.want, got)
			}
		})
	}
}

func TestBookRepository_Delete_PullsSellerListingOnly(t *testing.T) {
	db := newTestDB(t)
	books := db.Books()
	users := db.Users()
	ctx := context.Background()

	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	book := newBook(seller.ID, "Gone", 4)
	if err := books.Create(ctx, book); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := users.AppendListing(ctx, seller.ID, book.ID, domain.ListingSell); err != nil {
		t.Fatalf("AppendListing sell: %v", err)
	}
	if err := users.AppendListing(ctx, buyer.ID, book.ID, domain.ListingBuy); err != nil {
		t.Fatalf("AppendListing buy: %v", err)
	}

	removed, err := books.Delete(ctx, book.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(removed.Images) != 2 {
		t.Fatalf("expected removed record to carry its images, got %+v", removed.Images)
	}

	if _, err := books.GetByID(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	s, _ := users.GetByID(ctx, seller.ID)
	if len(s.SellBooks) != 0 {
		t.Fatalf("expected seller listing pulled, got %v", s.SellBooks)
	}
	b, _ := users.GetByID(ctx, buyer.ID)
	if len(b.BuyBooks) != 1 || b.BuyBooks[0] != book.ID {
		t.Fatalf("expected buyer reference to remain, got %v", b.BuyBooks)
	}

	if _, err := books.Delete(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}
