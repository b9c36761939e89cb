// Package focusd parses focusd command flags and composes the service
// entrypoint.
package focusd

import (
	"context"
	"flag"
	"fmt"

	httpapi "github.com/coincentrate/focusd/internal/api/http"
	"github.com/coincentrate/focusd/internal/engine"
	entrypoint "github.com/coincentrate/focusd/internal/platform/cmd"
	"github.com/coincentrate/focusd/internal/storage/sqlite"
)

// Config holds focusd command configuration.
type Config struct {
	Port   int    `env:"COINCENTRATE_PORT"    envDefault:"8080"`
	DBPath string `env:"COINCENTRATE_DB_PATH" envDefault:"focusd.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens storage, builds the engine, and serves the HTTP API until ctx is
// cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFocusd, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		svc := engine.NewService(store)
		defer svc.Close()

		server := httpapi.NewServer(svc, cfg.Port)
		if err := server.Serve(ctx); err != nil {
			return fmt.Errorf("serve focusd: %w", err)
		}
		return nil
	})
}
