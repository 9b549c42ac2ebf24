package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// LatestVersion asks Migrate for the newest embedded schema.
const LatestVersion int64 = -1

// ErrUnknownVersion is returned for a migration target no embedded file has.
var ErrUnknownVersion = errors.New("unknown schema version")

// MigrationState is one embedded migration and whether it is applied.
type MigrationState struct {
	Version   int64      `json:"version" yaml:"version"`
	File      string     `json:"file" yaml:"file"`
	Applied   bool       `json:"applied" yaml:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

// SchemaStatus is the applied version of the catalog schema next to the
// newest version this binary embeds.
type SchemaStatus struct {
	Version    int64            `json:"version" yaml:"version"`
	Latest     int64            `json:"latest" yaml:"latest"`
	Migrations []MigrationState `json:"migrations" yaml:"migrations"`
}

// Pending counts embedded migrations not yet applied.
func (s SchemaStatus) Pending() int {
	n := 0
	for _, m := range s.Migrations {
		if !m.Applied {
			n++
		}
	}
	return n
}

// Schema moves the catalog database between embedded migration versions.
type Schema struct {
	provider *goose.Provider
}

func NewSchema(db *sql.DB) (*Schema, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return &Schema{provider: provider}, nil
}

// Latest is the newest embedded version.
func (s *Schema) Latest() int64 {
	var latest int64
	for _, src := range s.provider.ListSources() {
		latest = max(latest, src.Version)
	}
	return latest
}

// Migrate applies or rolls back migrations until the database is at target.
// LatestVersion applies everything; 0 rolls back every migration.
func (s *Schema) Migrate(ctx context.Context, target int64) ([]MigrationState, error) {
	if target == LatestVersion {
		target = s.Latest()
	}
	if target < 0 || (target > 0 && !s.hasVersion(target)) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, target)
	}

	current, err := s.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case target > current:
		results, err = s.provider.UpTo(ctx, target)
	case target < current:
		results, err = s.provider.DownTo(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to migrate from %d to %d: %w", current, target, err)
	}

	applied := make([]MigrationState, 0, len(results))
	for _, r := range results {
		applied = append(applied, MigrationState{
			Version: r.Source.Version,
			File:    r.Source.Path,
			Applied: r.Direction == "up",
		})
	}
	return applied, nil
}

// Rollback undoes the most recent migration.
func (s *Schema) Rollback(ctx context.Context) (MigrationState, error) {
	r, err := s.provider.Down(ctx)
	if err != nil {
		return MigrationState{}, fmt.Errorf("failed to rollback migration: %w", err)
	}
	return MigrationState{Version: r.Source.Version, File: r.Source.Path}, nil
}

// Status reports the applied version and the state of every embedded
// migration.
func (s *Schema) Status(ctx context.Context) (SchemaStatus, error) {
	version, err := s.provider.GetDBVersion(ctx)
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("failed to get database version: %w", err)
	}
	states, err := s.provider.Status(ctx)
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("failed to get migration status: %w", err)
	}

	status := SchemaStatus{Version: version, Latest: s.Latest(), Migrations: make([]MigrationState, 0, len(states))}
	for _, st := range states {
		m := MigrationState{
			Version: st.Source.Version,
			File:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		}
		if m.Applied && !st.AppliedAt.IsZero() {
			at := st.AppliedAt.UTC()
			m.AppliedAt = &at
		}
		status.Migrations = append(status.Migrations, m)
	}
	return status, nil
}

func (s *Schema) hasVersion(version int64) bool {
	for _, src := range s.provider.ListSources() {
		if src.Version == version {
			return true
		}
	}
	return false
}
