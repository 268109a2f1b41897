// Package httpapi exposes the tracker's HTTP surface.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/timeline"
)

// App wires the HTTP handlers to the tracker core.
type App struct {
	service  *service.Service
	timeline *timeline.Builder
	logger   *slog.Logger

	authEnabled bool
	authConfig  auth.VerifierConfig

	started time.Time
}

// AppOption configures the App.
type AppOption func(*App)

// WithAuth enables bearer token verification with the given config.
func WithAuth(cfg auth.VerifierConfig) AppOption {
	return func(a *App) {
		a.authEnabled = true
		a.authConfig = cfg
	}
}

// WithLogger overrides the request logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) { a.logger = logger }
}

// NewApp creates the HTTP application.
func NewApp(svc *service.Service, builder *timeline.Builder, opts ...AppOption) *App {
	app := &App{
		service:  svc,
		timeline: builder,
		logger:   slog.Default(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}
