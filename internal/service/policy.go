package service

import (
	"github.com/msomdec/book-exchange/internal/domain"
)

// Denial is returned when an access rule refuses an action. It carries the
// message shown to the user and where to send them.
type Denial struct {
	Reason   string
	Redirect string
}

func (d *Denial) Error() string { return "forbidden: " + d.Reason }

func (d *Denial) Unwrap() error { return domain.ErrForbidden }

func deny(reason, redirect string) *Denial {
	return &Denial{Reason: reason, Redirect: redirect}
}

// A Rule is an access check. Rules are evaluated lazily so a rule that
// depends on an earlier one never runs when the earlier one denies.
type Rule func() *Denial

// Evaluate runs rules in order and returns the first denial.
func Evaluate(rules ...Rule) error {
	for _, rule := range rules {
		if d := rule(); d != nil {
			return d
		}
	}
	return nil
}

// RequireAuthenticated denies anonymous viewers.
func RequireAuthenticated(viewer *domain.User) Rule {
	return func() *Denial {
		if viewer == nil {
			return deny("You must log in first.", "/login")
		}
		return nil
	}
}

// RequireSameUser denies a viewer acting on an account other than their own.
func RequireSameUser(viewer *domain.User, userID, redirect string) Rule {
	return func() *Denial {
		if viewer == nil || viewer.ID != userID {
			return deny("You can only act on your own account.", redirect)
		}
		return nil
	}
}

// RequireProfileComplete denies actors that have not completed their profile.
func RequireProfileComplete(actor *domain.User, redirect string) Rule {
	return func() *Denial {
		if actor == nil || !actor.ProfileCompleted {
			return deny("Please complete your profile first.", redirect)
		}
		return nil
	}
}

// RequireDistinctParties denies a seller acting as the buyer of their own book.
func RequireDistinctParties(actorID string, book *domain.Book, redirect string) Rule {
	return func() *Denial {
		if book.SellerID == actorID {
			return deny("You cannot buy your own book.", redirect)
		}
		return nil
	}
}

// RequireSeller denies anyone but the book's seller.
func RequireSeller(viewer *domain.User, book *domain.Book, redirect string) Rule {
	return func() *Denial {
		if viewer == nil || book.SellerID != viewer.ID {
			return deny("Only the seller can remove this book.", redirect)
		}
		return nil
	}
}
