package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
	"github.com/Nachiket-Roy/LMS-sub000/internal/mocks"
	"github.com/Nachiket-Roy/LMS-sub000/internal/ports"
	"github.com/Nachiket-Roy/LMS-sub000/internal/testutil"
)

func newAuthService(t *testing.T) (*AuthService, *mocks.MockAuthAPI) {
	t.Helper()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	svc, err := NewAuthService(AuthServiceOptions{API: api})
	require.NoError(t, err)
	return svc, api
}

// signedInService returns a service that has completed Initialize with user signed in.
func signedInService(t *testing.T, user domainauth.User) (*AuthService, *mocks.MockAuthAPI) {
	t.Helper()
	svc, api := newAuthService(t)
	api.EXPECT().Me(gomock.Any()).Return(&user, nil)
	svc.Initialize(context.Background())
	require.True(t, svc.Snapshot().IsAuthenticated)
	return svc, api
}

// anonymousService returns a service that has completed Initialize with no session.
func anonymousService(t *testing.T) (*AuthService, *mocks.MockAuthAPI) {
	t.Helper()
	svc, api := newAuthService(t)
	api.EXPECT().Me(gomock.Any()).Return(nil, apperrors.SessionTerminated(apperrors.FromStatus(401, "")))
	svc.Initialize(context.Background())
	require.True(t, svc.Snapshot().AuthInitialized)
	return svc, api
}

func assertAnonymous(t *testing.T, st domainauth.State) {
	t.Helper()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
}

func TestNewAuthService(t *testing.T) {
	_, err := NewAuthService(AuthServiceOptions{})
	require.Error(t, err)

	svc, _ := newAuthService(t)
	st := svc.Snapshot()
	assert.True(t, st.Loading)
	assert.False(t, st.AuthInitialized)
	assert.Equal(t, domainauth.PhaseChecking, st.Phase())
}

func TestAuthService_Initialize_WithSession(t *testing.T) {
	user := testutil.NewUser().WithRole(domainauth.RoleLibrarian).Build()
	svc, _ := signedInService(t, user)

	st := svc.Snapshot()
	assert.True(t, st.AuthInitialized)
	assert.False(t, st.Loading)
	require.NotNil(t, st.User)
	assert.Equal(t, user, *st.User)
	assert.Equal(t, domainauth.PhaseAuthenticated, st.Phase())
}

func TestAuthService_Initialize_UnsuccessfulSessionCheck(t *testing.T) {
	svc, api := newAuthService(t)
	api.EXPECT().Me(gomock.Any()).Return(nil, apperrors.Validation(apperrors.MsgInvalidRequest))

	svc.Initialize(context.Background())

	st := svc.Snapshot()
	assertAnonymous(t, st)
	assert.True(t, st.AuthInitialized)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestAuthService_Initialize_NoUserInResponse(t *testing.T) {
	svc, api := newAuthService(t)
	api.EXPECT().Me(gomock.Any()).Return(nil, nil)

	svc.Initialize(context.Background())

	st := svc.Snapshot()
	assertAnonymous(t, st)
	assert.True(t, st.AuthInitialized)
}

func TestAuthService_Initialize_FlipsOnceAfterCheckSettles(t *testing.T) {
	svc, api := newAuthService(t)
	user := testutil.NewUser().Build()

	api.EXPECT().Me(gomock.Any()).DoAndReturn(func(context.Context) (*domainauth.User, error) {
		st := svc.Snapshot()
		assert.False(t, st.AuthInitialized, "must not be initialized before the check settles")
		assert.True(t, st.Loading)
		return &user, nil
	}).Times(1)

	var flips int
	prev := false
	svc.Subscribe(func(st domainauth.State) {
		if st.AuthInitialized && !prev {
			flips++
		}
		if prev {
			assert.True(t, st.AuthInitialized, "authInitialized must never revert")
		}
		prev = st.AuthInitialized
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Initialize(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, flips)
	assert.True(t, svc.Snapshot().AuthInitialized)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name      string
		loginErr  error
		wantError string
		wantCode  apperrors.ErrorCode
	}{
		{"bad credentials", apperrors.FromStatus(401, "Invalid credentials"), MsgInvalidCredentials, apperrors.ErrCodeUnauthorized},
		{"rate limited", apperrors.FromStatus(429, ""), MsgTooManyAttempts, apperrors.ErrCodeRateLimited},
		{"server error", apperrors.FromStatus(500, ""), apperrors.MsgServer, apperrors.ErrCodeInternal},
		{"validation", apperrors.FromStatus(400, "Email is required"), "Email is required", apperrors.ErrCodeValidation},
		{"transport", apperrors.FromTransport(&net.OpError{Op: "dial"}), apperrors.MsgTransport, apperrors.ErrCodeTransport},
		{"timeout", apperrors.FromTransport(context.DeadlineExceeded), apperrors.MsgTimeout, apperrors.ErrCodeTimeout},
		{"plain error", errors.New("boom"), apperrors.MsgUnexpected, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api := anonymousService(t)
			creds := domainauth.Credentials{Email: "a@x.com", Password: "bad"}
			api.EXPECT().Login(gomock.Any(), creds).Return(nil, tt.loginErr)

			res := svc.Login(context.Background(), creds)

			assert.Equal(t, domainauth.FailedWithCode(string(tt.wantCode), tt.wantError), res)
			st := svc.Snapshot()
			assertAnonymous(t, st)
			assert.False(t, st.Loading)
			assert.Equal(t, tt.wantError, st.Error)
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, api := anonymousService(t)
	user := testutil.NewUser().WithRole(domainauth.RoleAdmin).Build()

	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(&ports.LoginResponse{User: user, RedirectTo: "/admin/dashboard?welcome=1"}, nil)

	res := svc.Login(context.Background(), domainauth.Credentials{Email: user.Email, Password: "pw"})

	require.True(t, res.Success)
	assert.Equal(t, "/admin/dashboard?welcome=1", res.RedirectTo)
	assert.Equal(t, &user, res.User)

	st := svc.Snapshot()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, user, *st.User)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestAuthService_Login_DefaultsRedirectToDashboard(t *testing.T) {
	svc, api := anonymousService(t)
	user := testutil.NewUser().WithRole(domainauth.RoleLibrarian).Build()
	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(&ports.LoginResponse{User: user}, nil)

	res := svc.Login(context.Background(), domainauth.Credentials{})
	assert.Equal(t, "/librarian/dashboard", res.RedirectTo)
}

func TestAuthService_Login_ClearsPreviousError(t *testing.T) {
	svc, api := anonymousService(t)
	user := testutil.NewUser().Build()

	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, apperrors.FromStatus(401, ""))
	svc.Login(context.Background(), domainauth.Credentials{})
	require.Equal(t, MsgInvalidCredentials, svc.Snapshot().Error)

	api.EXPECT().Login(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domainauth.Credentials) (*ports.LoginResponse, error) {
		st := svc.Snapshot()
		assert.True(t, st.Loading)
		assert.Empty(t, st.Error)
		return &ports.LoginResponse{User: user}, nil
	})
	res := svc.Login(context.Background(), domainauth.Credentials{})
	assert.True(t, res.Success)
}

func TestAuthService_Login_NilResponse(t *testing.T) {
	svc, api := anonymousService(t)
	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, nil)

	res := svc.Login(context.Background(), domainauth.Credentials{})
	assert.False(t, res.Success)
	assert.Equal(t, apperrors.MsgInvalidBody, res.Error)
	assertAnonymous(t, svc.Snapshot())
}

func TestAuthService_Register(t *testing.T) {
	newUser := testutil.NewUser().Build()
	in := domainauth.RegisterInput{Name: newUser.Name, Email: newUser.Email, Password: "pw"}

	t.Run("auto login", func(t *testing.T) {
		svc, api := anonymousService(t)
		api.EXPECT().PublicRegister(gomock.Any(), in).Return(&ports.RegisterResponse{User: &newUser, AutoLogin: true}, nil)

		res := svc.Register(context.Background(), in)

		require.True(t, res.Success)
		assert.Equal(t, "/user/dashboard", res.RedirectTo)
		st := svc.Snapshot()
		assert.True(t, st.IsAuthenticated)
		assert.Equal(t, newUser, *st.User)
		assert.False(t, st.Loading)
	})

	t.Run("no auto login leaves session untouched", func(t *testing.T) {
		svc, api := anonymousService(t)
		api.EXPECT().PublicRegister(gomock.Any(), in).Return(&ports.RegisterResponse{User: &newUser}, nil)

		res := svc.Register(context.Background(), in)

		require.True(t, res.Success)
		assert.Empty(t, res.RedirectTo)
		st := svc.Snapshot()
		assertAnonymous(t, st)
		assert.False(t, st.Loading)
	})

	t.Run("failure carries server message", func(t *testing.T) {
		svc, api := anonymousService(t)
		api.EXPECT().PublicRegister(gomock.Any(), in).Return(nil, apperrors.FromStatus(400, "Email is already registered"))

		res := svc.Register(context.Background(), in)

		assert.Equal(t, domainauth.FailedWithCode(string(apperrors.ErrCodeValidation), "Email is already registered"), res)
		st := svc.Snapshot()
		assertAnonymous(t, st)
		assert.False(t, st.Loading)
		assert.Equal(t, "Email is already registered", st.Error)
	})
}

func TestAuthService_Logout(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{"server confirms", nil},
		{"network error", apperrors.FromTransport(&net.OpError{Op: "dial"})},
		{"server error", apperrors.FromStatus(500, "")},
		{"timeout", apperrors.FromTransport(context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api := signedInService(t, testutil.NewUser().Build())
			api.EXPECT().Logout(gomock.Any(), false).Return(tt.logoutErr)

			svc.Logout(context.Background(), false)

			st := svc.Snapshot()
			assertAnonymous(t, st)
			assert.False(t, st.Loading)
			assert.True(t, st.AuthInitialized)
			assert.Equal(t, domainauth.PhaseAnonymous, st.Phase())
		})
	}
}

func TestAuthService_Logout_ForwardsAllDevices(t *testing.T) {
	svc, api := signedInService(t, testutil.NewUser().Build())
	api.EXPECT().Logout(gomock.Any(), true).Return(nil)

	svc.Logout(context.Background(), true)
	assertAnonymous(t, svc.Snapshot())
}

func TestAuthService_UpdateUser(t *testing.T) {
	user := testutil.NewUser().WithName("Old").Build()
	svc, _ := signedInService(t, user)

	name := "New Name"
	require.NoError(t, svc.UpdateUser(domainauth.UserPatch{Name: &name}))

	st := svc.Snapshot()
	require.NotNil(t, st.User)
	assert.Equal(t, "New Name", st.User.Name)
	assert.Equal(t, user.ID, st.User.ID)
	assert.Equal(t, user.Email, st.User.Email)
	assert.Equal(t, user.Role, st.User.Role)
	assert.True(t, st.IsAuthenticated)
}

func TestAuthService_UpdateUser_Anonymous(t *testing.T) {
	svc, _ := anonymousService(t)
	before := svc.Snapshot()

	name := "Nobody"
	err := svc.UpdateUser(domainauth.UserPatch{Name: &name})

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, before, svc.Snapshot())
}

func TestAuthService_SnapshotIsolation(t *testing.T) {
	svc, _ := signedInService(t, testutil.NewUser().WithName("Original").Build())

	snap := svc.Snapshot()
	snap.User.Name = "Tampered"

	assert.Equal(t, "Original", svc.Snapshot().User.Name)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	user := testutil.NewUser().Build()
	svc, api := signedInService(t, user)

	name := "Updated"
	stored := user
	stored.Name = name
	api.EXPECT().UpdateProfile(gomock.Any(), domainauth.UserPatch{Name: &name}).Return(&stored, nil)

	got, err := svc.UpdateProfile(context.Background(), domainauth.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Name)
	assert.Equal(t, "Updated", svc.Snapshot().User.Name)
}

func TestAuthService_UpdateProfile_PartialRecordKeepsLocalFields(t *testing.T) {
	user := testutil.NewUser().WithName("Before").Build()
	svc, api := signedInService(t, user)

	name := "After"
	patch := domainauth.UserPatch{Name: &name}
	api.EXPECT().UpdateProfile(gomock.Any(), patch).Return(&domainauth.User{ID: user.ID}, nil)

	got, err := svc.UpdateProfile(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name, "submitted name applies when the backend omits it")
	assert.Equal(t, user.Email, got.Email, "an empty stored email must not erase the local one")
	assert.Equal(t, user.Email, svc.Snapshot().User.Email)
}

func TestAuthService_UpdateProfile_Failure(t *testing.T) {
	user := testutil.NewUser().WithName("Kept").Build()
	svc, api := signedInService(t, user)

	name := "Rejected"
	api.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).Return(nil, apperrors.FromStatus(400, "Name too long"))

	_, err := svc.UpdateProfile(context.Background(), domainauth.UserPatch{Name: &name})
	require.Error(t, err)
	assert.Equal(t, "Kept", svc.Snapshot().User.Name)
}

func TestAuthService_UpdateProfile_Anonymous(t *testing.T) {
	svc, _ := anonymousService(t)
	name := "x"
	_, err := svc.UpdateProfile(context.Background(), domainauth.UserPatch{Name: &name})
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAuthService_CreateUser(t *testing.T) {
	admin := testutil.NewUser().WithRole(domainauth.RoleAdmin).Build()
	svc, api := signedInService(t, admin)
	created := testutil.NewUser().WithRole(domainauth.RoleLibrarian).Build()

	in := domainauth.RegisterInput{Email: created.Email, Password: "pw", Role: domainauth.RoleLibrarian}
	api.EXPECT().Register(gomock.Any(), in).Return(&ports.RegisterResponse{User: &created}, nil)

	res := svc.CreateUser(context.Background(), in)
	require.True(t, res.Success)
	assert.Equal(t, &created, res.User)
	assert.Equal(t, admin, *svc.Snapshot().User, "creating a user must not change the caller's session")

	api.EXPECT().Register(gomock.Any(), in).Return(nil, apperrors.FromStatus(403, ""))
	res = svc.CreateUser(context.Background(), in)
	assert.Equal(t, domainauth.FailedWithCode(string(apperrors.ErrCodeForbidden), apperrors.MsgForbidden), res)
}

func TestAuthService_ClearError(t *testing.T) {
	svc, api := anonymousService(t)
	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, apperrors.FromStatus(429, ""))
	svc.Login(context.Background(), domainauth.Credentials{})
	before := svc.Snapshot()
	require.NotEmpty(t, before.Error)

	svc.ClearError()

	after := svc.Snapshot()
	assert.Empty(t, after.Error)
	before.Error = ""
	assert.Equal(t, before, after)
}

func TestAuthService_ExpireSession(t *testing.T) {
	svc, _ := signedInService(t, testutil.NewUser().Build())

	svc.ExpireSession(context.Background(), apperrors.SessionTerminated(nil))

	st := svc.Snapshot()
	assertAnonymous(t, st)
	assert.True(t, st.AuthInitialized)
	assert.Empty(t, st.Error)
}

func TestAuthService_ExpireSessionBeforeInitialize(t *testing.T) {
	svc, _ := newAuthService(t)

	svc.ExpireSession(context.Background(), apperrors.SessionTerminated(nil))

	st := svc.Snapshot()
	assertAnonymous(t, st)
	assert.False(t, st.AuthInitialized)
}

func TestAuthService_Subscribe(t *testing.T) {
	svc, api := anonymousService(t)

	var seen []domainauth.Phase
	unsubscribe := svc.Subscribe(func(st domainauth.State) { seen = append(seen, st.Phase()) })

	user := testutil.NewUser().Build()
	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(&ports.LoginResponse{User: user}, nil)
	svc.Login(context.Background(), domainauth.Credentials{})

	assert.Equal(t, []domainauth.Phase{domainauth.PhaseAnonymous, domainauth.PhaseAuthenticated}, seen)

	unsubscribe()
	svc.ClearError()
	assert.Len(t, seen, 2)
}

func TestAuthService_AuthenticatedIffUser(t *testing.T) {
	svc, api := newAuthService(t)

	var mu sync.Mutex
	var states []domainauth.State
	svc.Subscribe(func(st domainauth.State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	user := testutil.NewUser().Build()
	name := "Renamed"
	gomock.InOrder(
		api.EXPECT().Me(gomock.Any()).Return(nil, apperrors.FromStatus(401, "")),
		api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, apperrors.FromStatus(401, "")),
		api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(&ports.LoginResponse{User: user}, nil),
		api.EXPECT().PublicRegister(gomock.Any(), gomock.Any()).Return(nil, apperrors.FromStatus(400, "")),
		api.EXPECT().Logout(gomock.Any(), false).Return(errors.New("offline")),
		api.EXPECT().PublicRegister(gomock.Any(), gomock.Any()).Return(&ports.RegisterResponse{User: &user, AutoLogin: true}, nil),
	)

	ctx := context.Background()
	svc.Initialize(ctx)
	svc.Login(ctx, domainauth.Credentials{})
	svc.Login(ctx, domainauth.Credentials{})
	_ = svc.UpdateUser(domainauth.UserPatch{Name: &name})
	svc.Register(ctx, domainauth.RegisterInput{})
	svc.Logout(ctx, false)
	_ = svc.UpdateUser(domainauth.UserPatch{Name: &name})
	svc.Register(ctx, domainauth.RegisterInput{})
	svc.ExpireSession(ctx, nil)
	svc.ClearError()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	for i, st := range states {
		assert.Equal(t, st.IsAuthenticated, st.User != nil, "state %d violates the session invariant: %+v", i, st)
	}
}
