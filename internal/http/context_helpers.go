package httpx

import (
	"context"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
)

// userKey is an unexported context key type to avoid collisions across packages.
type userKey struct{}

// SetUserInContext returns a child context that carries the signed-in user.
// If user is nil, the original ctx is returned unchanged.
func SetUserInContext(ctx context.Context, user *domainauth.User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, user)
}

// GetUserFromContext returns the user placed in ctx by a guard and a boolean indicating presence.
func GetUserFromContext(ctx context.Context) (*domainauth.User, bool) {
	if u, ok := ctx.Value(userKey{}).(*domainauth.User); ok && u != nil {
		return u, true
	}
	return nil, false
}
