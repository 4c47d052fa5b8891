package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
)

// Cookie names issued by FakeBackend.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// DefaultPassword is the password AddUser callers usually pass.
const DefaultPassword = "correct-horse"

type account struct {
	user     domainauth.User
	password string
}

// gate holds a batch of 401 responses until all of them have arrived.
type gate struct {
	want    int
	arrived int
	release chan struct{}
}

// FakeBackend imitates the library REST backend over httptest: cookie
// sessions with short-lived access tokens and a refresh token, the /auth
// endpoints, and the read endpoints dashboards use. It counts every call.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	accounts     map[string]account
	access       map[string]string
	refresh      map[string]string
	calls        map[string]int
	overrides    map[string]http.HandlerFunc
	refreshFails bool
	refreshDelay time.Duration
	autoLogin    bool
	lastLogout   *bool
	hold         *gate
}

// NewFakeBackend starts a backend that is closed when t finishes.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		accounts:  make(map[string]account),
		access:    make(map[string]string),
		refresh:   make(map[string]string),
		calls:     make(map[string]int),
		overrides: make(map[string]http.HandlerFunc),
	}
	f.Server = httptest.NewServer(f)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the backend origin.
func (f *FakeBackend) URL() string { return f.Server.URL }

// AddUser registers an account that can log in with password.
func (f *FakeBackend) AddUser(u domainauth.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[u.Email] = account{user: u, password: password}
}

// ExpireAccessTokens invalidates every access token; refresh tokens stay valid.
func (f *FakeBackend) ExpireAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = make(map[string]string)
}

// FailRefresh makes /auth/refresh-token answer 401 when fail is set.
func (f *FakeBackend) FailRefresh(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshFails = fail
}

// SetRefreshDelay slows /auth/refresh-token down by d.
func (f *FakeBackend) SetRefreshDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshDelay = d
}

// SetAutoLogin controls whether public registration also opens a session.
func (f *FakeBackend) SetAutoLogin(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoLogin = on
}

// HoldUnauthorized makes the next n session-expired responses wait until all
// n requests have arrived, so concurrent callers see their 401s together.
func (f *FakeBackend) HoldUnauthorized(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = &gate{want: n, release: make(chan struct{})}
}

// Override replaces the handler for one method and path.
func (f *FakeBackend) Override(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = h
}

// Calls reports how many times method and path were requested.
func (f *FakeBackend) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

// LastLogoutAllDevices reports the allDevices flag of the latest logout, if any.
func (f *FakeBackend) LastLogoutAllDevices() (allDevices, seen bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastLogout == nil {
		return false, false
	}
	return *f.lastLogout, true
}

func (f *FakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.calls[key]++
	override := f.overrides[key]
	f.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	switch key {
	case "POST /auth/login":
		f.handleLogin(w, r)
	case "POST /auth/refresh-token":
		f.handleRefresh(w, r)
	case "POST /auth/logout":
		f.handleLogout(w, r)
	case "POST /auth/public-register":
		f.handlePublicRegister(w, r)
	case "POST /auth/register":
		f.handleRegister(w, r)
	case "GET /auth/me":
		f.withSession(w, r, func(a account) { WriteSuccess(w, map[string]any{"user": a.user}) })
	case "PATCH /auth/me":
		f.withSession(w, r, func(a account) { f.handleUpdateMe(w, r, a) })
	case "GET /users/profile":
		f.withSession(w, r, func(a account) {
			WriteSuccess(w, map[string]any{"id": a.user.ID, "name": a.user.Name, "email": a.user.Email, "role": a.user.Role})
		})
	case "GET /borrow-requests":
		f.withSession(w, r, func(a account) {
			WriteSuccess(w, []map[string]any{{
				"id": "br-1", "bookId": "book-1", "userId": a.user.ID, "status": "pending",
				"requestedAt": "2026-10-01T09:00:00Z",
			}})
		})
	case "GET /books":
		f.withSession(w, r, func(account) {
			WriteSuccess(w, []map[string]any{
				{"id": "book-1", "title": "The Go Programming Language", "author": "Donovan & Kernighan", "availableCopies": 2},
				{"id": "book-2", "title": "Designing Data-Intensive Applications", "author": "Kleppmann", "availableCopies": 0},
			})
		})
	case "GET /notifications":
		f.withSession(w, r, func(account) {
			WriteSuccess(w, []map[string]any{{"id": "n-1", "message": "Your request was approved", "read": false, "createdAt": "2026-10-02T10:00:00Z"}})
		})
	case "GET /fines":
		f.withSession(w, r, func(a account) {
			WriteSuccess(w, []map[string]any{{"id": "fine-1", "userId": a.user.ID, "amount": 2.5, "paid": false}})
		})
	default:
		WriteFailure(w, http.StatusNotFound, "Route not found")
	}
}

func (f *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		WriteFailure(w, http.StatusBadRequest, "Malformed body")
		return
	}

	f.mu.Lock()
	acct, ok := f.accounts[creds.Email]
	f.mu.Unlock()
	if !ok || acct.password != creds.Password {
		WriteFailure(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	f.issueSession(w, acct.user.Email)
	WriteSuccess(w, map[string]any{"user": acct.user, "redirectTo": domainauth.DashboardPath(acct.user.Role)})
}

func (f *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delay, fails := f.refreshDelay, f.refreshFails
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	c, err := r.Cookie(RefreshCookie)
	if err != nil || fails {
		WriteFailure(w, http.StatusUnauthorized, "Refresh token expired")
		return
	}

	f.mu.Lock()
	email, ok := f.refresh[c.Value]
	f.mu.Unlock()
	if !ok {
		WriteFailure(w, http.StatusUnauthorized, "Refresh token expired")
		return
	}

	token := uuid.NewString()
	f.mu.Lock()
	f.access[token] = email
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Value: token, Path: "/", HttpOnly: true})
	WriteSuccess(w, nil)
}

func (f *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AllDevices bool `json:"allDevices"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.lastLogout = &body.AllDevices
	if c, err := r.Cookie(AccessCookie); err == nil {
		delete(f.access, c.Value)
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		delete(f.refresh, c.Value)
	}
	f.mu.Unlock()

	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	WriteSuccess(w, nil)
}

func (f *FakeBackend) handlePublicRegister(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRegister(w, r)
	if !ok {
		return
	}
	user, created := f.createAccount(in, domainauth.RoleUser)
	if !created {
		WriteFailure(w, http.StatusBadRequest, "Email is already registered")
		return
	}

	f.mu.Lock()
	autoLogin := f.autoLogin
	f.mu.Unlock()
	if autoLogin {
		f.issueSession(w, user.Email)
	}
	WriteSuccess(w, map[string]any{"user": user, "autoLogin": autoLogin})
}

func (f *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	f.withSession(w, r, func(a account) {
		if a.user.Role != domainauth.RoleAdmin {
			WriteFailure(w, http.StatusForbidden, "Admins only")
			return
		}
		in, ok := decodeRegister(w, r)
		if !ok {
			return
		}
		role := in.Role
		if !role.Valid() {
			role = domainauth.RoleUser
		}
		user, created := f.createAccount(in, role)
		if !created {
			WriteFailure(w, http.StatusBadRequest, "Email is already registered")
			return
		}
		WriteSuccess(w, map[string]any{"user": user})
	})
}

func (f *FakeBackend) handleUpdateMe(w http.ResponseWriter, r *http.Request, a account) {
	var patch domainauth.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteFailure(w, http.StatusBadRequest, "Malformed body")
		return
	}
	a.user = patch.Apply(a.user)

	f.mu.Lock()
	f.accounts[a.user.Email] = a
	f.mu.Unlock()
	WriteSuccess(w, map[string]any{"user": a.user})
}

func (f *FakeBackend) withSession(w http.ResponseWriter, r *http.Request, fn func(account)) {
	acct, ok := f.sessionAccount(r)
	if !ok {
		f.unauthorized(w)
		return
	}
	fn(acct)
}

func (f *FakeBackend) sessionAccount(r *http.Request) (account, bool) {
	c, err := r.Cookie(AccessCookie)
	if err != nil {
		return account{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.access[c.Value]
	if !ok {
		return account{}, false
	}
	for _, a := range f.accounts {
		if a.user.Email == email {
			return a, true
		}
	}
	return account{}, false
}

func (f *FakeBackend) unauthorized(w http.ResponseWriter) {
	f.mu.Lock()
	g := f.hold
	if g != nil {
		g.arrived++
		if g.arrived >= g.want {
			close(g.release)
			f.hold = nil
		}
	}
	f.mu.Unlock()

	if g != nil {
		select {
		case <-g.release:
		case <-time.After(5 * time.Second):
		}
	}
	WriteFailure(w, http.StatusUnauthorized, "Access token expired")
}

func (f *FakeBackend) issueSession(w http.ResponseWriter, email string) {
	access, refresh := uuid.NewString(), uuid.NewString()
	f.mu.Lock()
	f.access[access] = email
	f.refresh[refresh] = email
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Value: access, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: refresh, Path: "/", HttpOnly: true})
}

func (f *FakeBackend) createAccount(in domainauth.RegisterInput, role domainauth.Role) (domainauth.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[in.Email]; exists {
		return domainauth.User{}, false
	}
	user := domainauth.User{
		ID:    fmt.Sprintf("user-%d", len(f.accounts)+100),
		Name:  in.Name,
		Email: in.Email,
		Role:  role,
	}
	f.accounts[in.Email] = account{user: user, password: in.Password}
	return user, true
}

func decodeRegister(w http.ResponseWriter, r *http.Request) (domainauth.RegisterInput, bool) {
	var in domainauth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		WriteFailure(w, http.StatusBadRequest, "Email is required")
		return in, false
	}
	return in, true
}

// WriteSuccess writes a {success:true, data} envelope with status 200.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// WriteFailure writes a {success:false, message} envelope with the given status.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, map[string]any{"success": false, "message": message})
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
