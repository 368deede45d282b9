package handler_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/msomdec/book-exchange/internal/domain"
)

func get(t *testing.T, c *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestHandleRoot_RedirectsHome(t *testing.T) {
	app := newTestApp(t, nil)

	resp, _ := get(t, newClient(t), app.srv.URL+"/")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/home" {
		t.Fatalf("expected 302 to /home, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHandleRoot_UnknownPathIsNotFound(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := get(t, newClient(t), app.srv.URL+"/nonexistent")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Page not found.") {
		t.Fatal("expected the error page")
	}
}

func TestUnmatchedRoutes_AnyMethodIsNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	client := newClient(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/nonexistent"},
		{http.MethodPost, "/about"},
		{http.MethodPost, "/book/abc"},
		{http.MethodPut, "/home"},
		{http.MethodDelete, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, app.srv.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("%s %s: %v", tt.method, tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", resp.StatusCode)
			}
			if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") || !strings.Contains(string(body), "Page not found.") {
				t.Fatalf("expected the not found page, got %q", body)
			}
		})
	}
}

func TestHandleHome_SearchAndSort(t *testing.T) {
	app := newTestApp(t, nil)
	ctx := context.Background()

	seller := domain.NewUser("seller", "seller@example.com")
	seller.PasswordHash = "x"
	if err := app.db.Users().Create(ctx, seller); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	for _, b := range []domain.Book{
		{Title: "Dune", Author: "Frank Herbert", ISBN: "1", Year: "1965", Topic: "Fiction", Price: 9},
		{Title: "Emma", Author: "Jane Austen", ISBN: "2", Year: "1815", Topic: "Classics", Price: 4},
	} {
		b.SellerID = seller.ID
		if err := app.db.Books().Create(ctx, &b); err != nil {
			t.Fatalf("Create book: %v", err)
		}
	}

	client := newClient(t)

	resp, body := get(t, client, app.srv.URL+"/home?sort=price_asc")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if strings.Index(body, "Emma") > strings.Index(body, "Dune") {
		t.Fatal("expected the cheaper book first")
	}

	_, body = get(t, client, app.srv.URL+"/home?q=austen")
	if !strings.Contains(body, "Emma") || strings.Contains(body, "Dune") {
		t.Fatal("expected the search to match the author only")
	}
}

func TestStaticPages(t *testing.T) {
	app := newTestApp(t, nil)
	client := newClient(t)

	for _, path := range []string{"/about", "/login", "/register", "/static/css/site.css", "/static/images/profile.svg"} {
		resp, _ := get(t, client, app.srv.URL+path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestProtectedPagesRedirectAnonymous(t *testing.T) {
	app := newTestApp(t, nil)
	client := newClient(t)

	for _, path := range []string{"/sellbook", "/profile/u1"} {
		resp, _ := get(t, client, app.srv.URL+path)
		expectRedirect(t, resp, "/login")
	}
}
