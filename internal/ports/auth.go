// Package ports defines interfaces (hexagonal ports) for the library backend.
// Implementations live in internal/apiclient; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	"github.com/Nachiket-Roy/LMS-sub000/internal/domain/model"
)

// LoginResponse is the data returned by a successful credential exchange.
type LoginResponse struct {
	User       domainauth.User `json:"user"`
	RedirectTo string          `json:"redirectTo,omitempty"`
}

// RegisterResponse is the data returned by a registration call.
// AutoLogin is set when the backend also opened a session for the new user.
type RegisterResponse struct {
	User      *domainauth.User `json:"user,omitempty"`
	AutoLogin bool             `json:"autoLogin"`
	Message   string           `json:"-"`
}

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	// Me checks the current session. A nil user with a nil error means no session.
	Me(ctx context.Context) (*domainauth.User, error)

	// Login exchanges credentials for a session cookie.
	Login(ctx context.Context, creds domainauth.Credentials) (*LoginResponse, error)

	// PublicRegister performs self-service sign-up.
	PublicRegister(ctx context.Context, in domainauth.RegisterInput) (*RegisterResponse, error)

	// Register creates a user on behalf of a privileged caller.
	Register(ctx context.Context, in domainauth.RegisterInput) (*RegisterResponse, error)

	// Logout terminates the current session, or every session when allDevices is set.
	Logout(ctx context.Context, allDevices bool) error

	// UpdateProfile patches the signed-in user and returns the updated record.
	UpdateProfile(ctx context.Context, patch domainauth.UserPatch) (*domainauth.User, error)
}

// LibraryAPI is the read surface used by dashboards.
type LibraryAPI interface {
	GetProfile(ctx context.Context) (*model.Profile, error)
	GetBorrowRequests(ctx context.Context) ([]model.BorrowRequest, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	ListFines(ctx context.Context) ([]model.Fine, error)
}
