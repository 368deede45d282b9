package handler

import (
	"net/http"

	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

// PageHandler serves the browse and informational pages.
type PageHandler struct {
	responder
	books *service.BookService
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(rs responder, books *service.BookService) *PageHandler {
	return &PageHandler{responder: rs, books: books}
}

// HandleRoot sends visitors to the listing. It also catches every request no
// other route matches, whatever the method, and answers those with a 404.
// GET /
func (h *PageHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		h.notFound(w, r)
		return
	}
	http.Redirect(w, r, "/home", http.StatusFound)
}

// HandleHome lists books, optionally filtered by ?q= and ordered by ?sort=.
// GET /home
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	filter := domain.BookFilter{
		Query: r.URL.Query().Get("q"),
		Sort:  domain.ParseBookSort(r.URL.Query().Get("sort")),
	}
	books, err := h.books.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "/home")
		return
	}

	rc := RequestFromContext(r.Context())
	rc.Search = true
	h.render(w, r, http.StatusOK, view.HomePage(rc, books, filter))
}

// HandleAbout renders the about page.
// GET /about
func (h *PageHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.AboutPage(RequestFromContext(r.Context())))
}
