package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// responder holds what every handler needs to finish a request.
type responder struct {
	logger       *slog.Logger
	cookieSecure bool
}

func (rs responder) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		rs.logger.ErrorContext(r.Context(), "render page", "path", r.URL.Path, "error", err)
	}
}

// redirect sends the browser to url. Requests issued by datastar get an SSE
// redirect; plain form posts get a 303.
func (rs responder) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("Datastar-Request") == "true" {
		sse := datastar.NewSSE(w, r)
		if err := sse.Redirect(url); err != nil {
			rs.logger.WarnContext(r.Context(), "sse redirect", "url", url, "error", err)
		}
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (rs responder) success(w http.ResponseWriter, r *http.Request, msg, url string) {
	setFlash(w, view.Flash{Success: msg}, rs.cookieSecure)
	rs.redirect(w, r, url)
}

func (rs responder) failure(w http.ResponseWriter, r *http.Request, msg, url string) {
	setFlash(w, view.Flash{Error: msg}, rs.cookieSecure)
	rs.redirect(w, r, url)
}

func (rs responder) notFound(w http.ResponseWriter, r *http.Request) {
	rs.render(w, r, http.StatusNotFound, view.ErrorPage(RequestFromContext(r.Context()), http.StatusNotFound, "Page not found."))
}

// fail maps a service error to a response. back is where handled failures
// return the user to.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	var denial *service.Denial
	switch {
	case errors.As(err, &denial):
		rs.failure(w, r, denial.Reason, denial.Redirect)
	case errors.Is(err, domain.ErrDuplicateUsername):
		rs.failure(w, r, "A user with the given username is already registered.", back)
	case errors.Is(err, domain.ErrInvalidInput):
		rs.failure(w, r, invalidInputMessage(err), back)
	case errors.Is(err, domain.ErrUpstreamStorage):
		rs.logger.WarnContext(r.Context(), "media storage failed", "path", r.URL.Path, "error", err)
		rs.failure(w, r, "The image could not be stored. Please try again.", back)
	case errors.Is(err, domain.ErrNotFound):
		rs.notFound(w, r)
	default:
		rs.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		rs.render(w, r, http.StatusInternalServerError,
			view.ErrorPage(RequestFromContext(r.Context()), http.StatusInternalServerError, "Something went wrong. Please try again."))
	}
}

func invalidInputMessage(err error) string {
	prefix := domain.ErrInvalidInput.Error() + ": "
	if _, msg, ok := strings.Cut(err.Error(), prefix); ok && msg != "" {
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	}
	return "Please check the form and try again."
}
