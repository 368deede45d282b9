package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/book-exchange/internal/media"
	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Logger *slog.Logger
	Auth   *service.AuthService
	Books  *service.BookService
	Users  *service.UserService
	// Blobs serves /media/ when images live in the database. Nil when an
	// external object store hands out its own URLs.
	Blobs        *media.BlobStore
	Store        Pinger
	LoginLimiter *service.TokenBucket
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	rs := responder{logger: d.Logger, cookieSecure: d.CookieSecure}

	pages := NewPageHandler(rs, d.Books)
	authH := NewAuthHandler(rs, d.Auth)
	profiles := NewProfileHandler(rs, d.Users)
	books := NewBookHandler(rs, d.Books)

	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Logger, d.CookieSecure, h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		if d.LoginLimiter == nil {
			return h
		}
		return RateLimit(d.Logger, d.LoginLimiter, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz(d.Store))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(view.Static)))
	if d.Blobs != nil {
		mux.HandleFunc("GET "+media.URLPrefix+"{key...}", NewMediaHandler(rs, d.Blobs).HandleServe)
	}

	mux.HandleFunc("/", pages.HandleRoot)
	mux.HandleFunc("GET /home", pages.HandleHome)
	mux.HandleFunc("GET /about", pages.HandleAbout)

	mux.HandleFunc("GET /login", authH.HandleLoginPage)
	mux.HandleFunc("GET /register", authH.HandleRegisterPage)
	mux.Handle("POST /login", limited(authH.HandleLogin))
	mux.Handle("POST /signup", limited(authH.HandleSignup))
	mux.Handle("POST /logout", protected(authH.HandleLogout))

	mux.Handle("GET /profile/{id}", protected(profiles.HandleProfile))
	mux.Handle("PUT /profile/{id}", protected(profiles.HandleUpdateProfile))
	mux.Handle("PUT /upload/{id}", protected(profiles.HandleUploadAvatar))

	mux.Handle("GET /sellbook", protected(books.HandleSellPage))
	mux.Handle("POST /sellbook/{id}", protected(books.HandleSell))
	mux.HandleFunc("GET /book/{id}", books.HandleDetail)
	mux.Handle("DELETE /book/{book_id}/user/{user_id}", protected(books.HandleDelete))
	mux.Handle("PUT /buybook/{book_id}/buyer/{buyer_id}", protected(books.HandleReserve))
}

// NewRouter returns the full application handler with its middleware chain.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, d)

	var h http.Handler = mux
	h = LoadRequestContext(d.Auth, d.CookieSecure, h)
	h = MethodOverride(h)
	h = SecurityHeaders(h)
	return LogRequests(d.Logger, h)
}
