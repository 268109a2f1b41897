// Package tracker parses tracker command flags and starts the runtime.
package tracker

import (
	"context"
	"flag"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	entrypoint "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/cmd"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/app"
)

// Config holds tracker command configuration.
type Config struct {
	Addr                string        `env:"TRACKER_HTTP_ADDR" envDefault:":8080"`
	DBPath              string        `env:"TRACKER_DB_PATH" envDefault:"tracker.sqlite"`
	MaxPartReplacements int           `env:"TRACKER_MAX_PART_REPLACEMENTS" envDefault:"0"`
	AuthEnabled         bool          `env:"TRACKER_AUTH_ENABLED" envDefault:"false"`
	RelayEnabled        bool          `env:"TRACKER_RELAY_ENABLED" envDefault:"false"`
	NATSURL             string        `env:"TRACKER_NATS_URL"`
	RelayStream         string        `env:"TRACKER_RELAY_STREAM" envDefault:"TRACKER_EVENTS"`
	RelaySubjectPrefix  string        `env:"TRACKER_RELAY_SUBJECT_PREFIX" envDefault:"tracker.events"`
	RelayInterval       time.Duration `env:"TRACKER_RELAY_INTERVAL" envDefault:"1s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The sqlite database path")
	fs.BoolVar(&cfg.RelayEnabled, "relay", cfg.RelayEnabled, "Publish events to NATS JetStream")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "The NATS server URL")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the tracker service.
func Run(ctx context.Context, cfg Config) error {
	opts := app.Options{
		Addr:                cfg.Addr,
		DBPath:              cfg.DBPath,
		MaxPartReplacements: cfg.MaxPartReplacements,
	}
	if cfg.AuthEnabled {
		verifier, err := auth.LoadVerifierConfigFromEnv(nil)
		if err != nil {
			return err
		}
		opts.AuthEnabled = true
		opts.AuthConfig = verifier
	}
	if cfg.RelayEnabled {
		opts.Relay = &app.RelayOptions{
			URL:           cfg.NATSURL,
			StreamName:    cfg.RelayStream,
			SubjectPrefix: cfg.RelaySubjectPrefix,
			Interval:      cfg.RelayInterval,
		}
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(ctx context.Context) error {
		return app.Run(ctx, opts)
	})
}
