package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"streamlens/catalog"
	"streamlens/config"
	"streamlens/dashboard"
	"streamlens/notifier"
	"streamlens/scheduler"
	"streamlens/scraper"
	"streamlens/storage"
)

var (
	configPath string
	envFile    string
	dataPath   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "streamlens",
	Short: "Linked-chart dashboard over a streaming catalog",
	Long: `streamlens imports a catalog of streaming titles and subscription prices,
keeps it in SQLite, and serves a dashboard of linked charts whose shared
filter state is changed by actions.

Configuration is read from the defaults, then --config, then the
environment (seeded from --env-file), then flags.

Examples:
  streamlens import --titles titles.csv --prices prices.csv
  streamlens serve --config streamlens.yaml
  streamlens render --out ./charts --preset dramas
  streamlens stats --format json`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Database directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (default: $LOG_LEVEL or info)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every command starts from.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	storage *storage.SQLiteStorage
}

func newApp() (*app, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	logger := newLogger(os.Stderr, logLevel)
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}

	store := storage.NewSQLiteStorage(cfg.DataPath)
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &app{cfg: cfg, logger: logger, storage: store}, nil
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

// newLogger builds the JSON logger. An empty level falls back to LOG_LEVEL.
func newLogger(w io.Writer, level string) *slog.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newDashboard builds a dashboard over the stored catalog.
func (a *app) newDashboard(ctx context.Context, renderer dashboard.Renderer) (*dashboard.Dashboard, *catalog.Store, error) {
	store, err := a.storage.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	dash := dashboard.New(store,
		dashboard.WithRenderer(renderer),
		dashboard.WithEngine(a.cfg.Engine()),
		dashboard.WithYearFloor(a.cfg.YearFloor),
		dashboard.WithLogger(a.logger),
	)
	return dash, store, nil
}

// newReloadJob wires the reload job. A nil dashboard is allowed.
func (a *app) newReloadJob(dash *dashboard.Dashboard) (*scheduler.ReloadJob, error) {
	job := &scheduler.ReloadJob{
		TitlesSource: a.cfg.TitlesSource,
		PricesSource: a.cfg.PricesSource,
		Fetcher:      scraper.NewScraper(),
		Storage:      a.storage,
		Dashboard:    dash,
		Logger:       a.logger,
	}
	if a.cfg.Email.Enabled() {
		n, err := notifier.NewEmailNotifier(a.cfg.Email.Notifier())
		if err != nil {
			return nil, err
		}
		a.logger.Info("reload notifications enabled",
			"host", a.cfg.Email.SMTPHost, "recipient", a.cfg.Email.Recipient,
			"password", notifier.MaskSecret(a.cfg.Email.Password))
		job.Notifier = n
	}
	return job, nil
}
