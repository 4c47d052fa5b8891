package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Nachiket-Roy/LMS-sub000/config"
	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
)

// StateReader exposes the current authentication state to guards.
type StateReader interface {
	Snapshot() domainauth.State
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// Browsers are redirected by guards; API clients get JSON errors instead.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}

	return strings.Contains(accept, "text/html")
}

// RequireRole returns a middleware that admits only authenticated users whose
// role is in roles; an empty roles list admits any authenticated user.
// Before the initial session check settles it renders the loading view and
// never redirects.
func RequireRole(auth StateReader, cfg config.HTTPConfig, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := auth.Snapshot()

			switch domainauth.Authorize(st, roles...) {
			case domainauth.VerdictWait:
				writeLoading(w, st)
			case domainauth.VerdictLogin:
				if IsBrowserRequest(r) {
					http.Redirect(w, r, cfg.LandingPath, http.StatusSeeOther)
					return
				}
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":      "authentication_required",
					"redirectTo": cfg.LandingPath,
				})
			case domainauth.VerdictUnauthorized:
				if IsBrowserRequest(r) {
					http.Redirect(w, r, cfg.UnauthorizedPath, http.StatusSeeOther)
					return
				}
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":      "insufficient_permissions",
					"redirectTo": cfg.UnauthorizedPath,
				})
			default:
				ctx := SetUserInContext(r.Context(), st.User)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// PublicOnly returns a middleware for anonymous-facing views. A signed-in
// user is sent to their dashboard, but only after the initial session check.
func PublicOnly(auth StateReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := auth.Snapshot()

			switch domainauth.PublicOnly(st) {
			case domainauth.VerdictWait:
				writeLoading(w, st)
			case domainauth.VerdictDashboard:
				http.Redirect(w, r, domainauth.DashboardPath(st.Role()), http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
