package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"streamlens/dashboard"
	"streamlens/render"
)

var (
	renderOut     string
	renderWidth   int
	renderHeight  int
	renderPreset  string
	renderActions string
	renderJSON    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render every chart to PNG files",
	Long: `Build the dashboard over the stored catalog, optionally restore a saved
preset and replay actions, then write one PNG per chart.

The actions file holds one JSON action per line, for example:
  {"type":"setPlatforms","names":["Netflix"]}
  {"type":"clickHierarchyCell","name":"Europe"}

Examples:
  streamlens render --out ./charts
  streamlens render --preset dramas --width 1600 --height 900
  streamlens render --actions steps.jsonl --json`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderOut, "out", "", "Output directory (default: chart_dir from config)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Chart width in pixels (default: config)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Chart height in pixels (default: config)")
	renderCmd.Flags().StringVar(&renderPreset, "preset", "", "Saved preset to restore first")
	renderCmd.Flags().StringVar(&renderActions, "actions", "", "File of JSON actions to replay, one per line")
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "Print the final view as JSON")
}

func runRender(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	out := a.cfg.ChartDir
	if renderOut != "" {
		out = renderOut
	}
	size := render.Size{Width: a.cfg.ChartWidth, Height: a.cfg.ChartHeight}
	if renderWidth > 0 {
		size.Width = renderWidth
	}
	if renderHeight > 0 {
		size.Height = renderHeight
	}

	// Charts are drawn once at the end rather than after every replayed action.
	dash, _, err := a.newDashboard(ctx, nil)
	if err != nil {
		return err
	}

	if renderPreset != "" {
		preset, err := a.storage.GetPreset(ctx, renderPreset)
		if err != nil {
			return err
		}
		if _, err := dash.LoadState(ctx, preset.State); err != nil {
			return err
		}
	}

	if renderActions != "" {
		if err := replayActions(cmd, dash, renderActions); err != nil {
			return err
		}
	}

	files, err := render.NewFileRenderer(out, size)
	if err != nil {
		return err
	}
	view := dash.View()
	if err := files.Render(ctx, view); err != nil {
		return err
	}
	a.logger.Info("charts rendered", "dir", out, "matched", view.Matched, "total", view.Total)

	if renderJSON {
		return render.NewJSONRenderer(cmd.OutOrStdout()).Render(ctx, view)
	}
	for _, c := range dashboard.Charts() {
		fmt.Fprintln(cmd.OutOrStdout(), files.Path(c))
	}
	return nil
}

func replayActions(cmd *cobra.Command, dash *dashboard.Dashboard, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open actions: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		action, err := dashboard.DecodeAction([]byte(text))
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if _, err := dash.Dispatch(cmd.Context(), action); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	return scanner.Err()
}
