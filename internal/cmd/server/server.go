// Package server parses server command flags and starts the API runtime.
package server

import (
	"context"
	"flag"
	"fmt"

	"github.com/louisbranch/taskhub/internal/app"
	entrypoint "github.com/louisbranch/taskhub/internal/platform/cmd"
)

// Config holds server command configuration.
type Config struct {
	Port   int    `env:"TASKHUB_PORT" envDefault:"8080"`
	Addr   string `env:"TASKHUB_ADDR"`
	DBPath string `env:"TASKHUB_DB_PATH" envDefault:"taskhub.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The API server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The API server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database file path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the API service.
func Run(ctx context.Context, cfg Config) error {
	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		server, err := app.New(app.Config{Addr: addr, DBPath: cfg.DBPath})
		if err != nil {
			return err
		}
		defer server.Close()
		return server.ListenAndServe(ctx)
	})
}
