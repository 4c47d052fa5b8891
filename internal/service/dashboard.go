package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	"github.com/Nachiket-Roy/LMS-sub000/internal/domain/model"
	"github.com/Nachiket-Roy/LMS-sub000/internal/ports"
)

// Panel names a dashboard section.
type Panel string

const (
	PanelProfile        Panel = "profile"
	PanelBorrowRequests Panel = "borrowRequests"
	PanelNotifications  Panel = "notifications"
	PanelFines          Panel = "fines"
	PanelBooks          Panel = "books"
)

// PanelsFor lists the panels shown on a role's dashboard.
func PanelsFor(role domainauth.Role) []Panel {
	switch role {
	case domainauth.RoleAdmin:
		return []Panel{PanelBooks, PanelBorrowRequests, PanelFines}
	case domainauth.RoleLibrarian:
		return []Panel{PanelBorrowRequests, PanelBooks}
	case domainauth.RoleUser:
		return []Panel{PanelProfile, PanelBorrowRequests, PanelNotifications, PanelFines}
	default:
		return nil
	}
}

// Dashboard holds the data behind one role's dashboard. Panels not shown for
// the role stay nil.
type Dashboard struct {
	Role           domainauth.Role       `json:"role"`
	Profile        *model.Profile        `json:"profile,omitempty"`
	BorrowRequests []model.BorrowRequest `json:"borrowRequests,omitempty"`
	Notifications  []model.Notification  `json:"notifications,omitempty"`
	Fines          []model.Fine          `json:"fines,omitempty"`
	Books          []model.Book          `json:"books,omitempty"`
	LoadedAt       time.Time             `json:"loadedAt"`
}

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	API    ports.LibraryAPI
	Logger *slog.Logger // Optional: structured logger
}

// DashboardService assembles role dashboards from the library endpoints.
type DashboardService struct {
	api    ports.LibraryAPI
	logger *slog.Logger
}

// NewDashboardService constructs a new DashboardService.
func NewDashboardService(opts DashboardServiceOptions) (*DashboardService, error) {
	if opts.API == nil {
		return nil, errors.New("API is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "dashboard_service")
	}
	return &DashboardService{api: opts.API, logger: logger}, nil
}

// Load fetches every panel for role concurrently. The first failure cancels
// the remaining fetches and is returned as-is.
func (s *DashboardService) Load(ctx context.Context, role domainauth.Role) (*Dashboard, error) {
	panels := PanelsFor(role)
	if len(panels) == 0 {
		return nil, fmt.Errorf("no dashboard for role %q", role)
	}

	start := time.Now()
	d := &Dashboard{Role: role}
	g, gctx := errgroup.WithContext(ctx)

	// Each goroutine writes a distinct field of d.
	for _, p := range panels {
		switch p {
		case PanelProfile:
			g.Go(func() (err error) {
				d.Profile, err = s.api.GetProfile(gctx)
				return err
			})
		case PanelBorrowRequests:
			g.Go(func() (err error) {
				d.BorrowRequests, err = s.api.GetBorrowRequests(gctx)
				return err
			})
		case PanelNotifications:
			g.Go(func() (err error) {
				d.Notifications, err = s.api.ListNotifications(gctx)
				return err
			})
		case PanelFines:
			g.Go(func() (err error) {
				d.Fines, err = s.api.ListFines(gctx)
				return err
			})
		case PanelBooks:
			g.Go(func() (err error) {
				d.Books, err = s.api.ListBooks(gctx)
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "dashboard load failed", "role", role, "error", err)
		}
		return nil, err
	}

	d.LoadedAt = time.Now()
	if s.logger != nil {
		s.logger.DebugContext(ctx, "dashboard loaded",
			"role", role,
			"panels", len(panels),
			"duration", time.Since(start),
		)
	}
	return d, nil
}
