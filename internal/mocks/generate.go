// Package mocks provides mock implementations of the backend ports for testing the library portal.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAuthAPI(ctrl)
//	api.EXPECT().Me(gomock.Any()).Return(&user, nil)
package mocks

// Generate mock for AuthAPI interface from internal/ports package.
// This creates MockAuthAPI with methods for all AuthAPI interface methods:
// Me, Login, PublicRegister, Register, Logout, UpdateProfile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/Nachiket-Roy/LMS-sub000/internal/ports AuthAPI

// Generate mock for LibraryAPI interface from internal/ports package.
// This creates MockLibraryAPI with methods for all LibraryAPI interface methods:
// GetProfile, GetBorrowRequests, ListBooks, ListNotifications, ListFines
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=library_api_mock.go github.com/Nachiket-Roy/LMS-sub000/internal/ports LibraryAPI
