package apiclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Backend paths used by the auth surface.
const (
	PathLogin          = "/auth/login"
	PathPublicRegister = "/auth/public-register"
	PathRegister       = "/auth/register"
	PathLogout         = "/auth/logout"
	PathMe             = "/auth/me"
	PathRefreshToken   = "/auth/refresh-token"
)

// Call describes one logical request. It is a value: replaying a call after a
// session refresh produces a copy with a higher attempt count, so the original
// is never mutated and a replay can never re-enter the refresh path.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Timeout overrides the client default when positive.
	Timeout time.Duration

	// SkipRefresh keeps a 401 from starting a session refresh. Set for the
	// auth endpoints whose 401 means bad credentials, not an expired session.
	SkipRefresh bool

	// ID is sent as X-Request-ID; generated when empty.
	ID string

	attempt int
}

// Get builds a GET call.
func Get(path string) Call {
	return Call{Method: http.MethodGet, Path: path}
}

// Post builds a POST call with a JSON body.
func Post(path string, body any) Call {
	return Call{Method: http.MethodPost, Path: path, Body: body}
}

// Patch builds a PATCH call with a JSON body.
func Patch(path string, body any) Call {
	return Call{Method: http.MethodPatch, Path: path, Body: body}
}

// WithQuery returns a copy of c carrying the given query parameters.
func (c Call) WithQuery(q url.Values) Call {
	c.Query = q
	return c
}

// NoRefresh returns a copy of c that will not trigger a session refresh on 401.
func (c Call) NoRefresh() Call {
	c.SkipRefresh = true
	return c
}

// Attempt is zero for the first send and one for the post-refresh replay.
func (c Call) Attempt() int { return c.attempt }

func (c Call) retry() Call {
	c.attempt++
	return c
}

func (c Call) withID() Call {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c
}

// refreshable reports whether a 401 on this call may start (or join) a refresh.
func (c Call) refreshable() bool {
	return !c.SkipRefresh && c.attempt == 0
}
