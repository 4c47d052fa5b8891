package apiclient

import (
	"context"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
	"github.com/Nachiket-Roy/LMS-sub000/internal/ports"
)

var _ ports.AuthAPI = (*AuthAPI)(nil)

// AuthAPI exposes the backend's /auth endpoints with typed responses.
type AuthAPI struct {
	client *Client
}

// NewAuthAPI wraps c.
func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{client: c}
}

type userData struct {
	User *domainauth.User `json:"user"`
}

// Me checks the current session via GET /auth/me.
func (a *AuthAPI) Me(ctx context.Context) (*domainauth.User, error) {
	data, err := Fetch[userData](ctx, a.client, Get(PathMe))
	if err != nil {
		return nil, err
	}
	if data.User != nil && !data.User.Role.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	return data.User, nil
}

// Login exchanges credentials via POST /auth/login.
func (a *AuthAPI) Login(ctx context.Context, creds domainauth.Credentials) (*ports.LoginResponse, error) {
	data, err := Fetch[ports.LoginResponse](ctx, a.client, Post(PathLogin, creds).NoRefresh())
	if err != nil {
		return nil, err
	}
	if data.User.ID == "" || !data.User.Role.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	return &data, nil
}

// PublicRegister performs self-service sign-up via POST /auth/public-register.
func (a *AuthAPI) PublicRegister(ctx context.Context, in domainauth.RegisterInput) (*ports.RegisterResponse, error) {
	in.Role = ""
	return a.register(ctx, Post(PathPublicRegister, in).NoRefresh())
}

// Register creates a user via the privileged POST /auth/register.
// It relies on the caller's session, so an expired session is refreshed as usual.
func (a *AuthAPI) Register(ctx context.Context, in domainauth.RegisterInput) (*ports.RegisterResponse, error) {
	return a.register(ctx, Post(PathRegister, in))
}

func (a *AuthAPI) register(ctx context.Context, call Call) (*ports.RegisterResponse, error) {
	resp, err := a.client.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	data, msg, err := DecodeEnvelope[ports.RegisterResponse](resp)
	if err != nil {
		return nil, err
	}
	data.Message = msg
	if data.AutoLogin && (data.User == nil || !data.User.Role.Valid()) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	return &data, nil
}

// Logout terminates the session via POST /auth/logout.
func (a *AuthAPI) Logout(ctx context.Context, allDevices bool) error {
	call := Post(PathLogout, map[string]bool{"allDevices": allDevices}).NoRefresh()
	_, err := a.client.Do(ctx, call)
	return err
}

// RefreshToken renews the session cookie via POST /auth/refresh-token.
func (a *AuthAPI) RefreshToken(ctx context.Context) error {
	return a.client.Refresh(ctx)
}

// UpdateProfile patches the signed-in user via PATCH /auth/me.
func (a *AuthAPI) UpdateProfile(ctx context.Context, patch domainauth.UserPatch) (*domainauth.User, error) {
	if patch.Empty() {
		return nil, apperrors.Validation("Nothing to update")
	}
	data, err := Fetch[userData](ctx, a.client, Patch(PathMe, patch))
	if err != nil {
		return nil, err
	}
	return data.User, nil
}
