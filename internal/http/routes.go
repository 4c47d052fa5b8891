package httpx

import (
	"log/slog"
	"net/http"

	"github.com/Nachiket-Roy/LMS-sub000/config"
	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       AuthStore
	Dashboards DashboardLoader
	Catalog    BookLister
	HTTP       config.HTTPConfig
	Logger     *slog.Logger // Logger for request logs and recovered panics (optional)
}

// NewRouter creates and configures the portal router with logging, panic
// recovery and browser detection.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandlers := &AuthHandlers{Svc: services.Auth, Config: services.HTTP, Logger: logger}
	pageHandlers := &PageHandlers{
		Auth:       services.Auth,
		Dashboards: services.Dashboards,
		Catalog:    services.Catalog,
		Config:     services.HTTP,
		Logger:     logger,
	}

	registerAuthRoutes(mux, authHandlers)
	registerPageRoutes(mux, pageHandlers, services)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	var handler http.Handler = mux
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /unauthorized", h.Unauthorized)
	mux.HandleFunc("GET /api/session", h.Session)
	mux.HandleFunc("DELETE /api/session/error", h.ClearError)
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, services RouterServices) {
	public := PublicOnly(services.Auth)
	guard := func(roles ...domainauth.Role) func(http.Handler) http.Handler {
		return RequireRole(services.Auth, services.HTTP, roles...)
	}

	mux.Handle("GET /{$}", public(h.Public(ViewHome)))
	mux.Handle("GET /login", public(h.Public(ViewLogin)))
	mux.Handle("GET /register", public(h.Public(ViewRegister)))

	mux.Handle("GET /me", guard()(http.HandlerFunc(h.Profile)))
	mux.Handle("PATCH /me", guard()(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("GET /books", guard()(http.HandlerFunc(h.Books)))

	mux.Handle("GET /user/dashboard", guard(domainauth.RoleUser)(h.Dashboard(domainauth.RoleUser)))
	mux.Handle("GET /librarian/dashboard",
		guard(domainauth.RoleLibrarian, domainauth.RoleAdmin)(h.Dashboard(domainauth.RoleLibrarian)))
	mux.Handle("GET /admin/dashboard", guard(domainauth.RoleAdmin)(h.Dashboard(domainauth.RoleAdmin)))
	mux.Handle("POST /admin/users", guard(domainauth.RoleAdmin)(http.HandlerFunc(h.CreateUser)))
}
