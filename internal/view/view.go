// Package view renders the server-side pages. Pages are html/template files
// embedded in the binary and exposed as templ components.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/msomdec/book-exchange/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static holds the assets served under /static/.
var Static = mustSub(staticFS, "static")

// Flash carries the one-shot messages shown at the top of a page.
type Flash struct {
	Success string
	Error   string
}

// RequestContext is the per-request state every page needs: who is looking,
// what to flash, and whether the search bar is shown.
type RequestContext struct {
	User   *domain.User
	Flash  Flash
	Search bool
}

// LoggedIn reports whether a user is attached.
func (rc *RequestContext) LoggedIn() bool { return rc != nil && rc.User != nil }

// Is reports whether the viewer has the given user id.
func (rc *RequestContext) Is(id string) bool { return rc.LoggedIn() && rc.User.ID == id }

type pageData struct {
	*RequestContext
	Title string
	Body  any
}

var funcs = template.FuncMap{
	"price": func(p float64) string { return strconv.FormatFloat(p, 'f', 2, 64) },
	"date":  func(t time.Time) string { return t.Format("2 Jan 2006") },
	"cover": func(b domain.Book) string {
		if len(b.Images) == 0 {
			return "/static/images/book.svg"
		}
		return b.Images[0].URL
	},
	"listed": func(b domain.Book) bool { return b.State() == domain.BookListed },
}

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"home", "about", "login", "register", "profile", "sellbook", "book", "error"} {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
}

// Page renders the named page inside the site layout.
func Page(rc *RequestContext, name, title string, body any) templ.Component {
	t, ok := pages[name]
	if !ok {
		panic(fmt.Sprintf("view: unknown page %q", name))
	}
	if rc == nil {
		rc = &RequestContext{}
	}
	return templ.FromGoHTML(t, pageData{RequestContext: rc, Title: title, Body: body})
}

// HomeBody lists books for browsing.
type HomeBody struct {
	Books []domain.Book
	Query string
	Sort  domain.BookSort
}

func HomePage(rc *RequestContext, books []domain.Book, filter domain.BookFilter) templ.Component {
	return Page(rc, "home", "Home", HomeBody{Books: books, Query: filter.Query, Sort: filter.Sort})
}

func AboutPage(rc *RequestContext) templ.Component {
	return Page(rc, "about", "About", nil)
}

func LoginPage(rc *RequestContext) templ.Component {
	return Page(rc, "login", "Log in", nil)
}

func RegisterPage(rc *RequestContext) templ.Component {
	return Page(rc, "register", "Sign up", nil)
}

func SellBookPage(rc *RequestContext) templ.Component {
	return Page(rc, "sellbook", "Sell a book", nil)
}

// ProfileBody is a user's profile with resolved listings.
type ProfileBody struct {
	*domain.ProfileView
	Owner bool
}

func ProfilePage(rc *RequestContext, pv *domain.ProfileView) templ.Component {
	return Page(rc, "profile", pv.User.Username, ProfileBody{ProfileView: pv, Owner: rc.Is(pv.User.ID)})
}

// BookBody is the detail page of one book.
type BookBody struct {
	*domain.BookDetail
	IsSeller bool
	CanBuy   bool
}

func BookPage(rc *RequestContext, d *domain.BookDetail) templ.Component {
	isSeller := rc.Is(d.Book.SellerID)
	return Page(rc, "book", d.Book.Title, BookBody{
		BookDetail: d,
		IsSeller:   isSeller,
		CanBuy:     rc.LoggedIn() && !isSeller && d.Book.State() == domain.BookListed,
	})
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Status  int
	Message string
}

func ErrorPage(rc *RequestContext, status int, message string) templ.Component {
	return Page(rc, "error", strconv.Itoa(status), ErrorBody{Status: status, Message: message})
}

func mustSub(f fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
