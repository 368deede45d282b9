package service_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/service"
)

// TestMarketplaceScenario walks one book through its whole life: listing,
// a refused purchase, profile completion, reservation and removal.
func TestMarketplaceScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	for _, u := range []*domain.User{alice, bob} {
		if env.reload(t, u.ID).ProfileCompleted {
			t.Fatalf("%s should start with an incomplete profile", u.Username)
		}
	}

	book := env.sell(t, alice, "Middlemarch", 8.5, jpegUpload("cover"))
	if a := env.reload(t, alice.ID); !slices.Equal(a.SellBooks, []string{book.ID}) {
		t.Fatalf("alice should list the book, got %v", a.SellBooks)
	}
	listed, err := env.books.List(ctx, domain.BookFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != book.ID || listed[0].SellerID != alice.ID {
		t.Fatalf("expected the book listed with alice as seller, got %+v", listed)
	}

	_, err = env.books.Reserve(ctx, bob, book.ID, bob.ID)
	var d *service.Denial
	if !errors.As(err, &d) || d.Reason != "Please complete your profile first." {
		t.Fatalf("expected incomplete-profile denial, got %v", err)
	}

	bob = env.completeProfile(t, bob)
	reserved, err := env.books.Reserve(ctx, bob, book.ID, bob.ID)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if reserved.BuyerID != bob.ID {
		t.Fatalf("expected bob as buyer, got %s", reserved.BuyerID)
	}
	if b := env.reload(t, bob.ID); !slices.Equal(b.BuyBooks, []string{book.ID}) {
		t.Fatalf("bob should hold the reservation, got %v", b.BuyBooks)
	}

	if err := env.books.Delete(ctx, alice, book.ID, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if a := env.reload(t, alice.ID); len(a.SellBooks) != 0 {
		t.Fatalf("alice listing should be empty, got %v", a.SellBooks)
	}
	if _, _, err := env.db.FileStore().Get(ctx, book.Images[0].Key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cover should be removed, got %v", err)
	}
	if _, err := env.books.Detail(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
