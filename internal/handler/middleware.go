package handler

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

// RequireAuth protects routes that need a session. Anonymous visitors are
// sent to the login page with a flash message. Must run inside
// LoadRequestContext.
func RequireAuth(logger *slog.Logger, cookieSecure bool, next http.Handler) http.Handler {
	rs := responder{logger: logger, cookieSecure: cookieSecure}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := service.Evaluate(service.RequireAuthenticated(UserFromContext(r.Context()))); err != nil {
			rs.fail(w, r, err, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MethodOverride lets HTML forms reach PUT and DELETE routes. The override is
// read from the _method query parameter or, for urlencoded bodies, the
// _method form field. Only POST requests are rewritten.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.URL.Query().Get("_method")
			if method == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				method = r.PostFormValue("_method")
			}
			switch m := strings.ToUpper(method); m {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://cdn.jsdelivr.net 'unsafe-eval'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"form-action 'self'; frame-ancestors 'none'"

// SecurityHeaders sets the browser hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// LogRequests writes one structured record per request.
func LogRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"remote", clientIP(r),
		)
	})
}

// RateLimit throttles requests per client address. Rejected requests get a
// 429 page with a Retry-After header.
func RateLimit(logger *slog.Logger, limiter *service.TokenBucket, next http.Handler) http.Handler {
	rs := responder{logger: logger}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := limiter.Allow(clientIP(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			rs.render(w, r, http.StatusTooManyRequests, view.ErrorPage(RequestFromContext(r.Context()),
				http.StatusTooManyRequests, "Too many attempts. Please wait a moment and try again."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
