package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Nachiket-Roy/LMS-sub000/config"
	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	"github.com/Nachiket-Roy/LMS-sub000/internal/domain/model"
	"github.com/Nachiket-Roy/LMS-sub000/internal/service"
)

// DashboardLoader loads a role's dashboard.
type DashboardLoader interface {
	Load(ctx context.Context, role domainauth.Role) (*service.Dashboard, error)
}

// BookLister lists the catalog.
type BookLister interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
}

// PageHandlers renders the portal's views.
type PageHandlers struct {
	Auth       AuthStore
	Dashboards DashboardLoader
	Catalog    BookLister
	Config     config.HTTPConfig
	Logger     *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Public returns a handler rendering the anonymous-facing view name.
func (h *PageHandlers) Public(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeView(w, http.StatusOK, View{Name: name, State: h.Auth.Snapshot()})
	}
}

// Profile renders the signed-in user's profile.
// GET /me.
func (h *PageHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUserFromContext(r.Context())
	writeView(w, http.StatusOK, View{Name: ViewProfile, State: h.Auth.Snapshot(), Data: user})
}

// UpdateProfile saves a partial profile update.
// PATCH /me with {"name"?, "email"?}.
func (h *PageHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch domainauth.UserPatch
	if !DecodeJSON(w, r, &patch) {
		return
	}

	user, err := h.Auth.UpdateProfile(r.Context(), patch)
	if errors.Is(err, service.ErrNotAuthenticated) {
		http.Redirect(w, r, h.Config.LandingPath, http.StatusSeeOther)
		return
	}
	if err != nil {
		h.logger().InfoContext(r.Context(), "profile update failed", "error", err)
		respondError(w, r, h.Config, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Dashboard returns a handler rendering role's dashboard.
func (h *PageHandlers) Dashboard(role domainauth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.Dashboards.Load(r.Context(), role)
		if err != nil {
			respondError(w, r, h.Config, err)
			return
		}
		writeView(w, http.StatusOK, View{Name: ViewDashboard, State: h.Auth.Snapshot(), Data: d})
	}
}

// Books renders the catalog.
// GET /books.
func (h *PageHandlers) Books(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.ListBooks(r.Context())
	if err != nil {
		respondError(w, r, h.Config, err)
		return
	}
	writeView(w, http.StatusOK, View{Name: ViewBooks, State: h.Auth.Snapshot(), Data: books})
}

// CreateUser provisions an account on behalf of an admin.
// POST /admin/users with {"name","email","password","phone","role"}.
func (h *PageHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in domainauth.RegisterInput
	if !DecodeJSON(w, r, &in) {
		return
	}
	if in.Role != "" {
		role, err := domainauth.ParseRole(string(in.Role))
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, domainauth.Failed("Role must be one of: user, librarian, admin"))
			return
		}
		in.Role = role
	}

	res := h.Auth.CreateUser(r.Context(), in)
	WriteJSON(w, resultStatus(res, http.StatusCreated), res)
}
