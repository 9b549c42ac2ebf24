// Package storage persists the title catalog, price observations and saved
// filter presets in SQLite. The schema is managed by embedded goose
// migrations.
package storage

import (
	"context"
	"errors"
	"time"

	"streamlens/catalog"
	"streamlens/filter"
)

// ErrPresetNotFound is returned when no preset has the requested name.
var ErrPresetNotFound = errors.New("preset not found")

// Stats summarizes the stored catalog.
type Stats struct {
	Total      int            `json:"total"`
	Shows      int            `json:"shows"`
	Movies     int            `json:"movies"`
	Platforms  map[string]int `json:"platforms"`
	Prices     int            `json:"prices"`
	ImportedAt *time.Time     `json:"imported_at,omitempty"`

	SchemaVersion     int64 `json:"schema_version"`
	PendingMigrations int   `json:"pending_migrations"`
}

// Preset is a named, saved filter state.
type Preset struct {
	Name      string       `json:"name"`
	State     filter.State `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type StorageInterface interface {
	Initialize() error
	ReplaceCatalog(ctx context.Context, store *catalog.Store) error
	LoadCatalog(ctx context.Context) (*catalog.Store, error)
	GetStats(ctx context.Context) (Stats, error)
	SavePreset(ctx context.Context, name string, state filter.State) (Preset, error)
	GetPreset(ctx context.Context, name string) (Preset, error)
	ListPresets(ctx context.Context) ([]Preset, error)
	DeletePreset(ctx context.Context, name string) error
	Close() error
}
