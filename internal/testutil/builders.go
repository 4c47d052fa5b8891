// Package testutil provides testing utilities and helpers for the library portal.
package testutil

import (
	"fmt"
	"sync/atomic"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
)

var userSeq atomic.Int64

// UserBuilder provides a fluent interface for building domain users for testing.
type UserBuilder struct {
	user domainauth.User
}

// NewUser creates a new UserBuilder with sensible defaults and a unique ID.
func NewUser() *UserBuilder {
	n := userSeq.Add(1)
	return &UserBuilder{
		user: domainauth.User{
			ID:    fmt.Sprintf("user-%d", n),
			Name:  fmt.Sprintf("Reader %d", n),
			Email: fmt.Sprintf("reader%d@example.com", n),
			Role:  domainauth.RoleUser,
		},
	}
}

// WithRole sets the role.
func (b *UserBuilder) WithRole(role domainauth.Role) *UserBuilder {
	b.user.Role = role
	return b
}

// WithName sets the display name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

// WithEmail sets the email address.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// Build returns the constructed user.
func (b *UserBuilder) Build() domainauth.User {
	return b.user
}

// BuildPtr returns a pointer to a copy of the constructed user.
func (b *UserBuilder) BuildPtr() *domainauth.User {
	u := b.user
	return &u
}
