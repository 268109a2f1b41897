// Package app assembles the tracker runtime: storage, domain service,
// timeline reads, the HTTP API, and the outbox relay.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/relay"
	relaynats "github.com/qjcoder/sunlife-lab-system-sub003/internal/relay/nats"
	httpapi "github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/api/http"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage/sqlite"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/timeline"
)

const shutdownTimeout = 10 * time.Second

// RelayOptions configures the outbox relay. A nil RelayOptions disables it.
type RelayOptions struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	Interval      time.Duration
}

// Options configures the tracker runtime.
type Options struct {
	Addr                string
	DBPath              string
	MaxPartReplacements int
	AuthEnabled         bool
	AuthConfig          auth.VerifierConfig
	Relay               *RelayOptions
	Logger              *slog.Logger
}

// Run assembles the runtime and serves until the context ends.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := sqlite.Open(opts.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	svcOpts := []service.Option{}
	if opts.MaxPartReplacements > 0 {
		svcOpts = append(svcOpts, service.WithMaxPartReplacements(opts.MaxPartReplacements))
	}
	svc := service.New(service.Stores{
		Events:    store,
		Units:     store,
		Models:    store,
		Visits:    store,
		PartStock: store,
	}, svcOpts...)
	builder := timeline.NewBuilder(timeline.Stores{
		Events: store,
		Units:  store,
		Models: store,
		Visits: store,
	})

	appOpts := []httpapi.AppOption{httpapi.WithLogger(logger)}
	if opts.AuthEnabled {
		appOpts = append(appOpts, httpapi.WithAuth(opts.AuthConfig))
	}
	handler := httpapi.NewRouter(httpapi.NewApp(svc, builder, appOpts...))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	relayErr := make(chan error, 1)
	if opts.Relay != nil {
		publisher, err := relaynats.NewPublisher(runCtx, relaynats.Config{
			URL:           opts.Relay.URL,
			StreamName:    opts.Relay.StreamName,
			SubjectPrefix: opts.Relay.SubjectPrefix,
		})
		if err != nil {
			return fmt.Errorf("start relay publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("close relay publisher", "error", err)
			}
		}()

		relayOpts := []relay.Option{relay.WithLogger(logger)}
		if opts.Relay.SubjectPrefix != "" {
			relayOpts = append(relayOpts, relay.WithSubjectPrefix(opts.Relay.SubjectPrefix))
		}
		if opts.Relay.Interval > 0 {
			relayOpts = append(relayOpts, relay.WithInterval(opts.Relay.Interval))
		}
		outboxRelay := relay.New(store, publisher, relayOpts...)
		go func() {
			if err := outboxRelay.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				relayErr <- err
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("tracker listening", "addr", opts.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}

	select {
	case <-runCtx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	case err := <-relayErr:
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("http shutdown", "error", shutdownErr)
		}
		<-serveErr
		return fmt.Errorf("relay: %w", err)
	}
}
