package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
	"github.com/Nachiket-Roy/LMS-sub000/internal/ports"
)

// Login failure messages shown instead of the generic normalized text.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgTooManyAttempts    = "Too many attempts. Please try again later."
)

// ErrNotAuthenticated is returned by actions that require a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API    ports.AuthAPI
	Logger *slog.Logger // Optional: structured logger
}

// AuthService owns the process-wide authentication state. All mutation goes
// through its actions; readers take snapshots or subscribe to transitions.
type AuthService struct {
	api    ports.AuthAPI
	logger *slog.Logger

	initOnce sync.Once

	mu      sync.RWMutex
	state   domainauth.State
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(domainauth.State)
}

// NewAuthService constructs a new AuthService in the initial checking state.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.API == nil {
		return nil, errors.New("API is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "auth_service")
	}

	return &AuthService{
		api:    opts.API,
		logger: logger,
		state:  domainauth.InitialState(),
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *AuthService) Snapshot() domainauth.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive the state after every transition.
// The returned func removes the subscription.
func (s *AuthService) Subscribe(fn func(domainauth.State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Initialize runs the initial session check. Only the first call does any
// work; later calls return once it has settled.
func (s *AuthService) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.transition(func(st *domainauth.State) { st.Loading = true })

		user, err := s.api.Me(ctx)
		if err != nil && s.logger != nil {
			s.logger.InfoContext(ctx, "no active session", "error", err)
		}

		s.transition(func(st *domainauth.State) {
			if err == nil && user != nil {
				signIn(st, *user)
			} else {
				signOut(st)
			}
			st.AuthInitialized = true
			st.Loading = false
		})
	})
}

// Login exchanges credentials for a session. Failures are reported in the
// returned Result and in the state's Error field.
func (s *AuthService) Login(ctx context.Context, creds domainauth.Credentials) domainauth.Result {
	s.transition(func(st *domainauth.State) {
		st.Loading = true
		st.Error = ""
	})

	resp, err := s.api.Login(ctx, creds)
	if err == nil && resp == nil {
		err = apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	if err != nil {
		msg := loginMessage(err)
		if s.logger != nil {
			s.logger.InfoContext(ctx, "login failed", "code", apperrors.GetCode(err), "status", apperrors.GetStatus(err))
		}
		s.transition(func(st *domainauth.State) {
			signOut(st)
			st.Loading = false
			st.Error = msg
		})
		return failed(err, msg)
	}

	user := resp.User
	s.transition(func(st *domainauth.State) {
		signIn(st, user)
		st.Loading = false
		st.Error = ""
	})

	redirect := resp.RedirectTo
	if redirect == "" {
		redirect = domainauth.DashboardPath(user.Role)
	}
	return domainauth.Succeeded(&user, redirect)
}

// Register performs self-service sign-up. The session changes only when the
// backend signals auto-login.
func (s *AuthService) Register(ctx context.Context, in domainauth.RegisterInput) domainauth.Result {
	s.transition(func(st *domainauth.State) {
		st.Loading = true
		st.Error = ""
	})

	resp, err := s.api.PublicRegister(ctx, in)
	if err == nil && resp == nil {
		err = apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	if err != nil {
		msg := apperrors.UserMessage(err)
		s.transition(func(st *domainauth.State) {
			st.Loading = false
			st.Error = msg
		})
		return failed(err, msg)
	}

	autoLogin := resp.AutoLogin && resp.User != nil
	s.transition(func(st *domainauth.State) {
		if autoLogin {
			signIn(st, *resp.User)
		}
		st.Loading = false
	})

	if autoLogin {
		return domainauth.Succeeded(resp.User, domainauth.DashboardPath(resp.User.Role))
	}
	return domainauth.Succeeded(resp.User, "")
}

// Logout ends the session. The local transition to anonymous happens even
// when the backend call fails.
func (s *AuthService) Logout(ctx context.Context, allDevices bool) {
	s.transition(func(st *domainauth.State) { st.Loading = true })

	if err := s.api.Logout(ctx, allDevices); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "logout request failed, clearing local session anyway",
			"all_devices", allDevices,
			"error", err,
		)
	}

	s.transition(func(st *domainauth.State) {
		signOut(st)
		st.Loading = false
		st.Error = ""
	})
}

// UpdateUser merges patch into the signed-in user without a backend call.
func (s *AuthService) UpdateUser(patch domainauth.UserPatch) error {
	var err error
	s.transition(func(st *domainauth.State) {
		if !st.IsAuthenticated || st.User == nil {
			err = ErrNotAuthenticated
			return
		}
		updated := patch.Apply(*st.User)
		st.User = &updated
	})
	return err
}

// UpdateProfile saves patch on the backend, then applies the stored record locally.
func (s *AuthService) UpdateProfile(ctx context.Context, patch domainauth.UserPatch) (*domainauth.User, error) {
	if !s.Snapshot().IsAuthenticated {
		return nil, ErrNotAuthenticated
	}

	updated, err := s.api.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, err
	}

	applied := patch
	if updated != nil {
		applied = storedPatch(*updated, patch)
	}
	if err := s.UpdateUser(applied); err != nil {
		return nil, err
	}
	return s.Snapshot().User, nil
}

// storedPatch prefers the backend's stored values and falls back to the
// submitted patch for fields the backend left empty.
func storedPatch(stored domainauth.User, submitted domainauth.UserPatch) domainauth.UserPatch {
	out := submitted
	if stored.Name != "" {
		out.Name = &stored.Name
	}
	if stored.Email != "" {
		out.Email = &stored.Email
	}
	return out
}

// CreateUser provisions an account through the privileged endpoint. The
// caller's own session is unaffected.
func (s *AuthService) CreateUser(ctx context.Context, in domainauth.RegisterInput) domainauth.Result {
	resp, err := s.api.Register(ctx, in)
	if err == nil && resp == nil {
		err = apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	if err != nil {
		return failed(err, apperrors.UserMessage(err))
	}
	return domainauth.Succeeded(resp.User, "")
}

// ClearError resets the stored error message.
func (s *AuthService) ClearError() {
	s.transition(func(st *domainauth.State) { st.Error = "" })
}

// ExpireSession drops the session after the backend refused to renew it.
// It does not touch AuthInitialized.
func (s *AuthService) ExpireSession(ctx context.Context, cause error) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session expired", "error", cause)
	}
	s.transition(signOut)
}

func (s *AuthService) transition(fn func(*domainauth.State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.Clone()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap.Clone())
	}
}

func signIn(st *domainauth.State, u domainauth.User) {
	st.User = &u
	st.IsAuthenticated = true
}

func signOut(st *domainauth.State) {
	st.User = nil
	st.IsAuthenticated = false
}

func failed(err error, msg string) domainauth.Result {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	return domainauth.FailedWithCode(string(code), msg)
}

func loginMessage(err error) string {
	switch {
	case apperrors.IsUnauthorized(err):
		return MsgInvalidCredentials
	case apperrors.IsRateLimited(err):
		return MsgTooManyAttempts
	default:
		return apperrors.UserMessage(err)
	}
}
