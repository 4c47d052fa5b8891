package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Nachiket-Roy/LMS-sub000/config"
	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
)

// AuthStore defines the auth state operations the portal needs.
type AuthStore interface {
	StateReader
	Login(ctx context.Context, creds domainauth.Credentials) domainauth.Result
	Register(ctx context.Context, in domainauth.RegisterInput) domainauth.Result
	Logout(ctx context.Context, allDevices bool)
	ClearError()
	UpdateProfile(ctx context.Context, patch domainauth.UserPatch) (*domainauth.User, error)
	CreateUser(ctx context.Context, in domainauth.RegisterInput) domainauth.Result
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthStore
	Config config.HTTPConfig
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login exchanges credentials for a session.
// POST /login with {"email","password"}.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if !DecodeJSON(w, r, &creds) {
		return
	}

	res := h.Svc.Login(r.Context(), creds)
	if !res.Success {
		h.logger().InfoContext(r.Context(), "portal login rejected", "reason", res.Error)
	}
	WriteJSON(w, loginStatus(res), res)
}

// Register performs self-service sign-up.
// POST /register with {"name","email","password","phone"}.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in domainauth.RegisterInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	res := h.Svc.Register(r.Context(), in)
	if res.Success && res.RedirectTo == "" {
		res.RedirectTo = h.Config.LandingPath
	}
	WriteJSON(w, resultStatus(res, http.StatusCreated), res)
}

type logoutRequest struct {
	AllDevices bool `json:"allDevices"`
}

// Logout ends the session. It always succeeds locally.
// POST /logout with an optional {"allDevices": true}.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}

	h.Svc.Logout(r.Context(), req.AllDevices)
	WriteJSON(w, http.StatusOK, domainauth.Succeeded(nil, h.Config.LandingPath))
}

// Session returns the current authentication state.
// GET /api/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, h.Svc.Snapshot())
}

// ClearError dismisses the stored login or registration error.
// DELETE /api/session/error.
func (h *AuthHandlers) ClearError(w http.ResponseWriter, _ *http.Request) {
	h.Svc.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// Unauthorized renders the role-mismatch view.
// GET /unauthorized.
func (h *AuthHandlers) Unauthorized(w http.ResponseWriter, _ *http.Request) {
	writeView(w, http.StatusForbidden, View{Name: ViewUnauthorized, State: h.Svc.Snapshot()})
}

func loginStatus(res domainauth.Result) int {
	return resultStatus(res, http.StatusOK)
}

// resultStatus maps a failed Result through its error class. Failures with
// no class are treated as bad input.
func resultStatus(res domainauth.Result, success int) int {
	switch {
	case res.Success:
		return success
	case res.Code == "":
		return http.StatusBadRequest
	default:
		return statusForCode(apperrors.ErrorCode(res.Code))
	}
}

// respondError writes err for a failed backend call. A terminated session on
// a non-public view sends the visitor to the landing page instead.
func respondError(w http.ResponseWriter, r *http.Request, cfg config.HTTPConfig, err error) {
	if apperrors.IsSessionTerminated(err) && !cfg.IsPublicPath(r.URL.Path) {
		if IsBrowserRequest(r) {
			http.Redirect(w, r, cfg.LandingPath, http.StatusSeeOther)
			return
		}
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":      string(apperrors.ErrCodeSessionTerminated),
			"message":    apperrors.UserMessage(err),
			"redirectTo": cfg.LandingPath,
		})
		return
	}
	WriteAppError(w, err)
}
