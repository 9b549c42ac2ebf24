package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"streamlens/config"
	"streamlens/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "", "Path to database directory (default: $DATA_PATH or ./data)")
		command  = flag.String("cmd", "status", "Migration command: up, down, status")
		target   = flag.Int64("version", storage.LatestVersion, "Schema version for up (default: latest, 0 rolls back everything)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(".env"); err != nil {
		fatal("failed to load .env", err)
	}
	if *dataPath == "" {
		*dataPath = config.DefaultConfig().DataPath
		if v := os.Getenv("DATA_PATH"); v != "" {
			*dataPath = v
		}
	}

	// The schema is opened without Initialize, which would migrate to latest.
	sqliteStorage := storage.NewSQLiteStorage(*dataPath)
	defer sqliteStorage.Close()
	if err := os.MkdirAll(*dataPath, 0755); err != nil {
		fatal("failed to create data directory", err)
	}
	schema, err := sqliteStorage.Schema()
	if err != nil {
		fatal("failed to open schema", err)
	}

	ctx := context.Background()
	switch *command {
	case "up":
		applied, err := schema.Migrate(ctx, *target)
		if err != nil {
			fatal("failed to migrate", err)
		}
		for _, m := range applied {
			slog.Info("migration applied", "version", m.Version, "file", m.File, "up", m.Applied)
		}
	case "down":
		m, err := schema.Rollback(ctx)
		if err != nil {
			fatal("failed to rollback migration", err)
		}
		slog.Info("migration rolled back", "version", m.Version, "file", m.File)
	case "status":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		fmt.Fprintln(os.Stderr, "Available commands: up, down, status")
		os.Exit(1)
	}

	status, err := schema.Status(ctx)
	if err != nil {
		fatal("failed to get migration status", err)
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(status); err != nil {
		fatal("failed to print migration status", err)
	}
	if err := enc.Close(); err != nil {
		fatal("failed to print migration status", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
