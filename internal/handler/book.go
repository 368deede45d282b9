package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

// BookHandler serves listing, reservation and removal of books.
type BookHandler struct {
	responder
	books *service.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(rs responder, books *service.BookService) *BookHandler {
	return &BookHandler{responder: rs, books: books}
}

// HandleSellPage renders the listing form.
// GET /sellbook
func (h *BookHandler) HandleSellPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.SellBookPage(RequestFromContext(r.Context())))
}

// HandleSell creates a listing from the multipart form with its
// "bookPhotos" files.
// POST /sellbook/{id}
func (h *BookHandler) HandleSell(w http.ResponseWriter, r *http.Request) {
	photos, err := readUploads(w, r, "bookPhotos", maxBookBody)
	if err != nil {
		h.fail(w, r, err, "/sellbook")
		return
	}

	// An unparsable price is left at zero and rejected by validation.
	price, _ := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)

	book, err := h.books.Sell(r.Context(), UserFromContext(r.Context()), r.PathValue("id"), service.BookInput{
		Title:  r.FormValue("title"),
		ISBN:   r.FormValue("isbn"),
		Year:   r.FormValue("year"),
		Topic:  r.FormValue("topic"),
		Author: r.FormValue("author"),
		Price:  price,
	}, photos)
	if err != nil {
		h.fail(w, r, err, "/sellbook")
		return
	}

	h.logger.InfoContext(r.Context(), "book listed", "book_id", book.ID, "seller_id", book.SellerID, "photos", len(book.Images))
	h.success(w, r, "Your book "+book.Title+" is up for sale!", "/home")
}

// HandleDetail renders one book with its seller and buyer.
// GET /book/{id}
func (h *BookHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.books.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "/home")
		return
	}
	h.render(w, r, http.StatusOK, view.BookPage(RequestFromContext(r.Context()), detail))
}

// HandleDelete removes a listing owned by the session user.
// DELETE /book/{book_id}/user/{user_id}
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("book_id")
	if err := h.books.Delete(r.Context(), UserFromContext(r.Context()), bookID, r.PathValue("user_id")); err != nil {
		h.fail(w, r, err, "/book/"+bookID)
		return
	}
	h.success(w, r, "Book has been deleted from sell successfully!", "/home")
}

// HandleReserve records the session user as the book's buyer.
// PUT /buybook/{book_id}/buyer/{buyer_id}
func (h *BookHandler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("book_id")
	if _, err := h.books.Reserve(r.Context(), UserFromContext(r.Context()), bookID, r.PathValue("buyer_id")); err != nil {
		h.fail(w, r, err, "/book/"+bookID)
		return
	}
	h.success(w, r, "You booked this book!", "/book/"+bookID)
}
