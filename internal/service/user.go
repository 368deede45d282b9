package service

import (
	"context"
	"fmt"

	"github.com/msomdec/book-exchange/internal/domain"
)

// ProfileInput is the profile completion form. The address is stored
// verbatim; only the fields needed to arrange a hand-over are required.
type ProfileInput struct {
	FirstName  string `label:"First name" validate:"required,max=100"`
	LastName   string `label:"Last name" validate:"required,max=100"`
	Phone      string `label:"Phone" validate:"required,max=32"`
	HouseNo    string `label:"House no." validate:"max=64"`
	Street     string `label:"Street" validate:"max=200"`
	Landmark   string `label:"Landmark" validate:"max=200"`
	City       string `label:"City" validate:"max=100"`
	Country    string `label:"Country" validate:"max=100"`
	PostalCode string `label:"Postal code" validate:"max=20"`
}

// UserService manages profiles and avatars.
type UserService struct {
	users  domain.UserRepository
	books  domain.BookRepository
	images *ImageService
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository, books domain.BookRepository, images *ImageService) *UserService {
	return &UserService{users: users, books: books, images: images}
}

func profilePath(id string) string { return "/profile/" + id }

// Profile returns the user with their sell and buy listings resolved.
// Listings that point at deleted books are left out.
func (s *UserService) Profile(ctx context.Context, id string) (*domain.ProfileView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	sell, err := s.books.GetByIDs(ctx, user.SellBooks)
	if err != nil {
		return nil, fmt.Errorf("resolve sell listing: %w", err)
	}
	buy, err := s.books.GetByIDs(ctx, user.BuyBooks)
	if err != nil {
		return nil, fmt.Errorf("resolve buy listing: %w", err)
	}

	return &domain.ProfileView{User: user, SellBooks: sell, BuyBooks: buy}, nil
}

// UpdateAvatar stores a new avatar and removes the previous one unless it is
// the default.
func (s *UserService) UpdateAvatar(ctx context.Context, viewer *domain.User, userID string, upload Upload) (*domain.User, error) {
	if err := Evaluate(
		RequireAuthenticated(viewer),
		RequireSameUser(viewer, userID, "/home"),
	); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	ref, err := s.images.Store(ctx, folderUsers, upload)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	if user.HasCustomAvatar() {
		s.images.DeleteAll(ctx, []domain.ImageRef{user.Avatar})
	}

	if err := s.users.Update(ctx, userID, domain.UserPatch{Avatar: &ref}); err != nil {
		s.images.DeleteAll(context.WithoutCancel(ctx), []domain.ImageRef{ref})
		return nil, fmt.Errorf("set avatar: %w", err)
	}

	user.Avatar = ref
	return user, nil
}

// UpdateProfile overwrites name, phone and address and marks the profile
// complete. Applying the same input twice gives the same result.
func (s *UserService) UpdateProfile(ctx context.Context, viewer *domain.User, userID string, in ProfileInput) (*domain.User, error) {
	if err := Evaluate(
		RequireAuthenticated(viewer),
		RequireSameUser(viewer, userID, "/home"),
	); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	name := domain.PersonName{First: in.FirstName, Last: in.LastName}
	addr := domain.Address{
		HouseNo:    in.HouseNo,
		Street:     in.Street,
		Landmark:   in.Landmark,
		City:       in.City,
		Country:    in.Country,
		PostalCode: in.PostalCode,
	}
	completed := true

	if err := s.users.Update(ctx, userID, domain.UserPatch{
		Name:             &name,
		Phone:            &in.Phone,
		Address:          &addr,
		ProfileCompleted: &completed,
	}); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
