// Package auth contains domain-level types for authentication and the
// client-side session state. It is pure and free of framework/adapter concerns.
package auth

import (
	"fmt"
	"strings"
)

// Role represents an application's authorization role.
// Keep string form to match the backend's JSON.
// Valid values are defined as constants below.
type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleLibrarian, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a backend role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is the snapshot of the signed-in principal held for the session lifetime.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserPatch is a partial update merged into the current User.
// Nil fields are left untouched.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// Apply returns u with the patch merged in.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return u
}

// Credentials are exchanged at /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput carries sign-up data for /auth/public-register and /auth/register.
// Role is only honoured by the privileged endpoint.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// Result is the discriminated outcome returned by state machine actions.
// Exactly one of the success or failure shapes is populated.
type Result struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	RedirectTo string `json:"redirectTo,omitempty"`
	User       *User  `json:"user,omitempty"`

	// Code classifies a failure for transports; it is not sent to clients.
	Code string `json:"-"`
}

// Succeeded builds a success Result.
func Succeeded(user *User, redirectTo string) Result {
	return Result{Success: true, User: user, RedirectTo: redirectTo}
}

// Failed builds a failure Result.
func Failed(message string) Result {
	return Result{Success: false, Error: message}
}

// FailedWithCode builds a failure Result carrying an error class.
func FailedWithCode(code, message string) Result {
	return Result{Success: false, Error: message, Code: code}
}
