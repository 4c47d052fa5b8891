package apiclient

import (
	"context"

	"github.com/Nachiket-Roy/LMS-sub000/internal/domain/model"
	"github.com/Nachiket-Roy/LMS-sub000/internal/ports"
)

// Library resource paths.
const (
	PathProfile        = "/users/profile"
	PathBorrowRequests = "/borrow-requests"
	PathBooks          = "/books"
	PathNotifications  = "/notifications"
	PathFines          = "/fines"
)

var _ ports.LibraryAPI = (*LibraryAPI)(nil)

// LibraryAPI exposes the read endpoints dashboards are built from.
type LibraryAPI struct {
	client *Client
}

// NewLibraryAPI wraps c.
func NewLibraryAPI(c *Client) *LibraryAPI {
	return &LibraryAPI{client: c}
}

// GetProfile fetches the signed-in user's profile.
func (l *LibraryAPI) GetProfile(ctx context.Context) (*model.Profile, error) {
	p, err := Fetch[model.Profile](ctx, l.client, Get(PathProfile))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBorrowRequests lists borrow requests visible to the caller.
func (l *LibraryAPI) GetBorrowRequests(ctx context.Context) ([]model.BorrowRequest, error) {
	return Fetch[[]model.BorrowRequest](ctx, l.client, Get(PathBorrowRequests))
}

// ListBooks lists the catalog.
func (l *LibraryAPI) ListBooks(ctx context.Context) ([]model.Book, error) {
	return Fetch[[]model.Book](ctx, l.client, Get(PathBooks))
}

// ListNotifications lists the caller's notifications.
func (l *LibraryAPI) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	return Fetch[[]model.Notification](ctx, l.client, Get(PathNotifications))
}

// ListFines lists fines visible to the caller.
func (l *LibraryAPI) ListFines(ctx context.Context) ([]model.Fine, error) {
	return Fetch[[]model.Fine](ctx, l.client, Get(PathFines))
}
