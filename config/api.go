package config

import (
	"strings"
	"time"
)

const (
	// DefaultAPIBaseURL is the backend origin used when API_BASE_URL is unset.
	DefaultAPIBaseURL = "http://localhost:3000"
	// DefaultAPITimeout bounds every ordinary backend call.
	DefaultAPITimeout = 10 * time.Second
	// DefaultAPIRefreshTimeout bounds the session refresh call.
	DefaultAPIRefreshTimeout = 5 * time.Second
)

// APIConfig contains library backend client configuration.
type APIConfig struct {
	// BaseURL is the origin of the library REST backend.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// Timeout bounds ordinary calls.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// RefreshTimeout bounds the /auth/refresh-token call.
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"5s"`

	// UserAgent is sent on every backend request.
	UserAgent string `env:"USER_AGENT" envDefault:"library-portal"`
}

// Sanitize applies guardrails to API client configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.BaseURL = DefaultAPIBaseURL
	}
	if a.Timeout <= 0 {
		a.Timeout = DefaultAPITimeout
	}
	if a.RefreshTimeout <= 0 {
		a.RefreshTimeout = DefaultAPIRefreshTimeout
	}
	if a.RefreshTimeout > a.Timeout {
		a.RefreshTimeout = a.Timeout
	}
	a.UserAgent = strings.TrimSpace(a.UserAgent)
}
