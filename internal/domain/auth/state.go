package auth

// Phase names the coarse state of the authentication state machine.
type Phase string

const (
	// PhaseUnknown is the initial phase before any session check has started.
	PhaseUnknown Phase = "unknown"
	// PhaseChecking covers the initial session check.
	PhaseChecking Phase = "checking"
	// PhaseAuthenticated means a user is signed in.
	PhaseAuthenticated Phase = "authenticated"
	// PhaseAnonymous means the session is known to be absent.
	PhaseAnonymous Phase = "anonymous"
)

// State is the process-wide authentication record.
//
// Invariants: IsAuthenticated implies User != nil, and AuthInitialized never
// goes back to false once set.
type State struct {
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Loading         bool   `json:"loading"`
	AuthInitialized bool   `json:"authInitialized"`
	Error           string `json:"error,omitempty"`
}

// InitialState is the state at process start.
func InitialState() State {
	return State{Loading: true}
}

// Phase derives the coarse phase from the state fields.
func (s State) Phase() Phase {
	switch {
	case !s.AuthInitialized && s.Loading:
		return PhaseChecking
	case !s.AuthInitialized:
		return PhaseUnknown
	case s.IsAuthenticated && s.User != nil:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

// Role returns the signed-in role, or empty when anonymous.
func (s State) Role() Role {
	if !s.IsAuthenticated || s.User == nil {
		return ""
	}
	return s.User.Role
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
