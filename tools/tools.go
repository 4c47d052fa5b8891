//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed via `go install` or run through `go run` and are
// not tracked in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - Generates the port mocks under internal/mocks
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock/mockgen@v0.6.0 (matches the go.uber.org/mock require)
//
// Air - Live reload for the portal while working against a local backend
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: air --build.cmd "go build -o ./tmp/library-portal ./cmd/library-portal" --build.bin ./tmp/library-portal
