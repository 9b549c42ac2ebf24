package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamlens/filter"
)

// SavePreset stores state under name, replacing an existing preset of the
// same name.
func (s *SQLiteStorage) SavePreset(ctx context.Context, name string, state filter.State) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, errors.New("preset name is required")
	}
	if err := state.Validate(); err != nil {
		return Preset{}, err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to encode preset: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO filter_presets (name, state, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, name, string(data), now, now)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to save preset: %w", err)
	}
	return s.GetPreset(ctx, name)
}

func (s *SQLiteStorage) GetPreset(ctx context.Context, name string) (Preset, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT name, state, created_at, updated_at
	FROM filter_presets
	WHERE name = ?
	`, name)

	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return p, err
}

func (s *SQLiteStorage) ListPresets(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT name, state, created_at, updated_at
	FROM filter_presets
	ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

func (s *SQLiteStorage) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM filter_presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (Preset, error) {
	var p Preset
	var data string
	var created, updated int64
	if err := row.Scan(&p.Name, &data, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, err
		}
		return Preset{}, fmt.Errorf("failed to scan preset: %w", err)
	}
	p.State = filter.Default()
	if err := json.Unmarshal([]byte(data), &p.State); err != nil {
		return Preset{}, fmt.Errorf("failed to decode preset %q: %w", p.Name, err)
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}
