package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/book-exchange/internal/handler"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleHealthz(t *testing.T) {
	tests := []struct {
		name       string
		store      handler.Pinger
		wantStatus int
		wantBody   string
	}{
		{"no store", nil, http.StatusOK, "ok"},
		{"store up", pingFunc(func(context.Context) error { return nil }), http.StatusOK, "ok"},
		{"store down", pingFunc(func(context.Context) error { return errors.New("connection refused") }), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.HandleHealthz(tt.store)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected Content-Type application/json, got %s", ct)
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != tt.wantBody {
				t.Fatalf("expected status=%s, got %s", tt.wantBody, body["status"])
			}
		})
	}
}

func TestHandleHealthzRouting(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := http.Get(app.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
