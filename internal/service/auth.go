package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/book-exchange/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 24 * time.Hour

// RegisterInput is the signup form.
type RegisterInput struct {
	Username        string `label:"Username" validate:"required,alphanum,min=3,max=32"`
	Email           string `label:"Email" validate:"required,email,max=254"`
	Password        string `label:"Password" validate:"required,pwd"`
	ConfirmPassword string `label:"Password confirmation" validate:"required,eqfield=Password"`
}

// AuthService handles user registration, login, and JWT token operations.
type AuthService struct {
	users      domain.UserRepository
	jwtSecret  []byte
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user account with the registration defaults.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.NewUser(in.Username, in.Email)
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed JWT token string.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrUnauthorized
	}

	return s.IssueToken(user)
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(sessionTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return token, nil
}

// ValidateToken parses and validates a JWT token string.
// Returns the user ID from the sub claim.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthorized
	}
	return sub, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
