package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

const (
	authCookie  = "auth_token"
	flashCookie = "flash"
)

type contextKey string

const requestContextKey contextKey = "request"

// RequestFromContext returns the per-request state built by
// LoadRequestContext. It never returns nil.
func RequestFromContext(ctx context.Context) *view.RequestContext {
	if rc, ok := ctx.Value(requestContextKey).(*view.RequestContext); ok {
		return rc
	}
	return &view.RequestContext{}
}

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	return RequestFromContext(ctx).User
}

// LoadRequestContext resolves the session user, consumes any pending flash
// message and attaches both to the request. Requests without a valid session
// proceed anonymously.
func LoadRequestContext(auth *service.AuthService, cookieSecure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := &view.RequestContext{}
		if user, err := authenticateRequest(r, auth); err == nil {
			rc.User = user
		}
		if f, ok := readFlash(r); ok {
			rc.Flash = f
			clearCookie(w, flashCookie, cookieSecure)
		}

		ctx := context.WithValue(r.Context(), requestContextKey, rc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService) (*domain.User, error) {
	cookie, err := r.Cookie(authCookie)
	if err != nil {
		return nil, err
	}

	userID, err := auth.ValidateToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	return auth.GetUserByID(r.Context(), userID)
}

type flashPayload struct {
	Success string `json:"s,omitempty"`
	Error   string `json:"e,omitempty"`
}

func setFlash(w http.ResponseWriter, f view.Flash, secure bool) {
	raw, err := json.Marshal(flashPayload(f))
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

func readFlash(r *http.Request) (view.Flash, bool) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return view.Flash{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return view.Flash{}, true
	}
	var p flashPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return view.Flash{}, true
	}
	return view.Flash(p), true
}

func setAuthCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
