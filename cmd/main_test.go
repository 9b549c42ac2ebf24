package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamlens/dashboard"
)

const cliTitles = `title,platform,type,release_year,score,genres,audience,countries
Alpha,Netflix,SHOW,2019,8.1,Drama,adult,US
Beta,Hulu,MOVIE,2020,6.5,Comedy,child,Japan
Gamma,Netflix,MOVIE,2021,7.0,Drama,teen,France
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("streamlens %s failed: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestImportStatsRender(t *testing.T) {
	dir := t.TempDir()
	titles := filepath.Join(dir, "titles.csv")
	if err := os.WriteFile(titles, []byte(cliTitles), 0o644); err != nil {
		t.Fatalf("Failed to write titles: %v", err)
	}
	actions := filepath.Join(dir, "actions.jsonl")
	if err := os.WriteFile(actions, []byte(`# netflix only
{"type":"setPlatforms","names":["Netflix"]}
`), 0o644); err != nil {
		t.Fatalf("Failed to write actions: %v", err)
	}
	data := filepath.Join(dir, "data")
	env := filepath.Join(dir, "missing.env")

	execute(t, "import", "--env-file", env, "--data", data, "--titles", titles, "--log-level", "error")

	out := execute(t, "stats", "--env-file", env, "--data", data, "--format", "json")
	var stats statsOutput
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("Failed to decode stats %q: %v", out, err)
	}
	if stats.Total != 3 || stats.Movies != 2 || stats.Platforms["Netflix"] != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.SchemaVersion != 2 || stats.PendingMigrations != 0 {
		t.Errorf("Expected schema version 2 with nothing pending, got %+v", stats)
	}

	charts := filepath.Join(dir, "charts")
	out = execute(t, "render", "--env-file", env, "--data", data, "--out", charts,
		"--width", "400", "--height", "300", "--actions", actions, "--json")
	var view dashboard.View
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("Failed to decode view: %v", err)
	}
	if view.Matched != 2 || view.Total != 3 {
		t.Errorf("Expected 2 of 3 matched, got %d of %d", view.Matched, view.Total)
	}
	for _, c := range dashboard.Charts() {
		if _, err := os.Stat(filepath.Join(charts, string(c)+".png")); err != nil {
			t.Errorf("Chart %s missing: %v", c, err)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		logger := newLogger(&bytes.Buffer{}, tt.level)
		if !logger.Enabled(context.Background(), tt.want) {
			t.Errorf("%s: expected %s enabled", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && logger.Enabled(context.Background(), tt.want-1) {
			t.Errorf("%s: expected levels below %s disabled", tt.level, tt.want)
		}
	}
}
