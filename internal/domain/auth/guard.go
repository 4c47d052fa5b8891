package auth

// Verdict is the outcome of a route guard check.
type Verdict string

const (
	// VerdictWait means the session check has not settled; render a neutral loading view.
	VerdictWait Verdict = "wait"
	// VerdictAllow means the view may render.
	VerdictAllow Verdict = "allow"
	// VerdictLogin means the visitor is anonymous and must go to the landing page.
	VerdictLogin Verdict = "login"
	// VerdictUnauthorized means the user is signed in but lacks a permitted role.
	VerdictUnauthorized Verdict = "unauthorized"
	// VerdictDashboard means a signed-in user hit a public-only view and goes to their dashboard.
	VerdictDashboard Verdict = "dashboard"
)

// Authorize decides whether a role-scoped view may render for state s.
// An empty allowed set admits any authenticated user.
func Authorize(s State, allowed ...Role) Verdict {
	if !s.AuthInitialized {
		return VerdictWait
	}
	if !s.IsAuthenticated || s.User == nil {
		return VerdictLogin
	}
	if len(allowed) == 0 {
		return VerdictAllow
	}
	for _, r := range allowed {
		if s.User.Role == r {
			return VerdictAllow
		}
	}
	return VerdictUnauthorized
}

// PublicOnly decides whether a public marketing view may render.
// It never redirects before the initial session check settles.
func PublicOnly(s State) Verdict {
	if !s.AuthInitialized {
		return VerdictWait
	}
	if s.IsAuthenticated && s.User != nil {
		return VerdictDashboard
	}
	return VerdictAllow
}

// DashboardPath is the root view for a role.
func DashboardPath(r Role) string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleLibrarian:
		return "/librarian/dashboard"
	default:
		return "/user/dashboard"
	}
}
