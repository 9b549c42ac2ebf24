package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"streamlens/catalog"
	"streamlens/dashboard"
	"streamlens/notifier"
	"streamlens/scraper"
	"streamlens/storage"
)

// ReloadJobName is the name the reload job registers under.
const ReloadJobName = "dataset_reload"

var (
	// ErrNoTitlesSource is returned when the job has nothing to import.
	ErrNoTitlesSource = errors.New("no titles source configured")
	// ErrNoTitles is returned when the titles source parses to no records.
	ErrNoTitles = errors.New("titles source has no titles")
)

// ReloadNotifier is told about every successful reload.
type ReloadNotifier interface {
	NotifyReload(summary notifier.ReloadSummary) error
}

// ReloadJob re-imports the title and price datasets, persists them and
// swaps the new catalog into the dashboard.
type ReloadJob struct {
	TitlesSource string
	PricesSource string
	Fetcher      scraper.ScraperInterface
	Storage      storage.StorageInterface
	// Dashboard and Notifier are optional.
	Dashboard *dashboard.Dashboard
	Notifier  ReloadNotifier
	Logger    *slog.Logger
}

func (j *ReloadJob) Name() string {
	return ReloadJobName
}

func (j *ReloadJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

// Load fetches and parses both sources into a store without persisting it.
// A titles source with no usable rows is an error.
func (j *ReloadJob) Load(ctx context.Context) (*catalog.Store, error) {
	if j.TitlesSource == "" {
		return nil, ErrNoTitlesSource
	}

	data, err := j.Fetcher.FetchDataset(ctx, j.TitlesSource, "titles")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch titles: %w", err)
	}
	records, err := catalog.ReadTitles(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse titles from %s: %w", j.TitlesSource, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTitles, j.TitlesSource)
	}

	var prices []catalog.PriceObservation
	if j.PricesSource != "" {
		data, err := j.Fetcher.FetchDataset(ctx, j.PricesSource, "prices")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch prices: %w", err)
		}
		prices, err = catalog.ReadPrices(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse prices from %s: %w", j.PricesSource, err)
		}
	}

	return catalog.NewStore(records, prices), nil
}

// Run performs one reload. Nothing is replaced unless every step before
// persisting succeeds.
func (j *ReloadJob) Run(ctx context.Context) error {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := j.logger().With("run_id", runID)

	store, err := j.Load(ctx)
	if err != nil {
		return err
	}
	if err := j.Storage.ReplaceCatalog(ctx, store); err != nil {
		return fmt.Errorf("failed to persist catalog: %w", err)
	}
	if j.Dashboard != nil {
		j.Dashboard.ReplaceStore(ctx, store)
	}

	stats, err := j.Storage.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog stats: %w", err)
	}
	duration := time.Since(startTime)
	logger.Info("catalog reloaded",
		"titles", stats.Total, "shows", stats.Shows, "movies", stats.Movies,
		"prices", stats.Prices, "duration", duration)

	if j.Notifier == nil {
		return nil
	}
	summary := notifier.ReloadSummary{
		RunID:       runID,
		Sources:     j.sources(),
		Titles:      stats.Total,
		Shows:       stats.Shows,
		Movies:      stats.Movies,
		Prices:      stats.Prices,
		Platforms:   notifier.PlatformsFromCounts(stats.Platforms),
		Duration:    duration.Round(time.Millisecond),
		CompletedAt: time.Now(),
	}
	if err := j.Notifier.NotifyReload(summary); err != nil {
		// The reload itself succeeded.
		logger.Error("failed to send reload notification", "error", err)
	}
	return nil
}

func (j *ReloadJob) sources() []string {
	sources := []string{j.TitlesSource}
	if j.PricesSource != "" {
		sources = append(sources, j.PricesSource)
	}
	return sources
}
