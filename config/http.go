package config

import "strings"

// DefaultHTTPAddr binds the portal to loopback. The portal holds one session
// for the whole process, so it must not be reachable by other hosts unless an
// operator opts in.
const DefaultHTTPAddr = "127.0.0.1:8080"

// HTTPConfig contains portal HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"ADDR" envDefault:"127.0.0.1:8080"`

	// LandingPath is where anonymous visitors are sent, including after a forced session expiry.
	LandingPath string `env:"LANDING_PATH" envDefault:"/login"`

	// UnauthorizedPath is where authenticated users without the required role are sent.
	UnauthorizedPath string `env:"UNAUTHORIZED_PATH" envDefault:"/unauthorized"`

	// PublicPaths are views that never trigger a session-expiry redirect.
	PublicPaths []string `env:"PUBLIC_PATHS" envDefault:"/;/login;/register;/forgot-password" envSeparator:";"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = DefaultHTTPAddr
	}
	h.LandingPath = normalizePath(h.LandingPath, "/login")
	h.UnauthorizedPath = normalizePath(h.UnauthorizedPath, "/unauthorized")

	seen := make(map[string]struct{}, len(h.PublicPaths)+1)
	paths := make([]string, 0, len(h.PublicPaths)+1)
	for _, p := range append(h.PublicPaths, h.LandingPath) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	h.PublicPaths = paths
}

// IsPublicPath reports whether path is one of the configured public views.
func (h *HTTPConfig) IsPublicPath(path string) bool {
	for _, p := range h.PublicPaths {
		if p == path {
			return true
		}
	}
	return false
}

func normalizePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") {
		return fallback
	}
	return p
}
