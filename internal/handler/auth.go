package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

// AuthHandler handles login, signup and logout.
type AuthHandler struct {
	responder
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(rs responder, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{responder: rs, auth: auth}
}

// HandleLoginPage renders the login form.
// GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.LoginPage(RequestFromContext(r.Context())))
}

// HandleRegisterPage renders the signup form.
// GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.RegisterPage(RequestFromContext(r.Context())))
}

// HandleLogin verifies credentials and starts a session.
// POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	token, err := h.auth.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.failure(w, r, "Invalid username or password.", "/login")
			return
		}
		h.fail(w, r, err, "/login")
		return
	}

	setAuthCookie(w, token, h.cookieSecure)
	h.success(w, r, "Welcome again, "+username, "/home")
}

// HandleSignup creates an account and logs the new user in.
// POST /signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	if err != nil {
		h.fail(w, r, err, "/register")
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		h.fail(w, r, err, "/register")
		return
	}

	setAuthCookie(w, token, h.cookieSecure)
	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "username", user.Username)
	h.success(w, r, "Welcome "+user.Username, "/home")
}

// HandleLogout clears the session cookie.
// POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, authCookie, h.cookieSecure)
	h.success(w, r, "See you soon!", "/home")
}
