package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsFormat, "format", "yaml", "Output format: yaml|json")
}

type statsOutput struct {
	Total      int            `yaml:"total" json:"total"`
	Shows      int            `yaml:"shows" json:"shows"`
	Movies     int            `yaml:"movies" json:"movies"`
	Prices     int            `yaml:"prices" json:"prices"`
	Platforms  map[string]int `yaml:"platforms" json:"platforms"`
	ImportedAt string         `yaml:"imported_at,omitempty" json:"imported_at,omitempty"`
	Presets    []string       `yaml:"presets,omitempty" json:"presets,omitempty"`

	SchemaVersion     int64 `yaml:"schema_version" json:"schema_version"`
	PendingMigrations int   `yaml:"pending_migrations" json:"pending_migrations"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	stats, err := a.storage.GetStats(ctx)
	if err != nil {
		return err
	}
	presets, err := a.storage.ListPresets(ctx)
	if err != nil {
		return err
	}

	out := statsOutput{
		Total:     stats.Total,
		Shows:     stats.Shows,
		Movies:    stats.Movies,
		Prices:    stats.Prices,
		Platforms: stats.Platforms,

		SchemaVersion:     stats.SchemaVersion,
		PendingMigrations: stats.PendingMigrations,
	}
	if stats.ImportedAt != nil {
		out.ImportedAt = stats.ImportedAt.Format("2006-01-02 15:04:05")
	}
	for _, p := range presets {
		out.Presets = append(out.Presets, p.Name)
	}

	w := cmd.OutOrStdout()
	switch statsFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use yaml or json)", statsFormat)
	}
}
