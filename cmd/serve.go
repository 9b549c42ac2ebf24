package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"streamlens/render"
	"streamlens/scheduler"
	"streamlens/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Load the stored catalog, render every chart into the chart directory and
serve the dashboard API. When a titles source is configured the catalog is
reloaded on the configured cron schedule.

An empty database with a titles source, or reload_at_startup, triggers an
import before serving; a failed startup import is fatal.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if serveListen != "" {
		a.cfg.Listen = serveListen
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	files, err := render.NewFileRenderer(a.cfg.ChartDir, render.Size{Width: a.cfg.ChartWidth, Height: a.cfg.ChartHeight})
	if err != nil {
		return err
	}
	dash, store, err := a.newDashboard(ctx, render.Multi(files, render.LogRenderer{Logger: a.logger}))
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(a.logger, a.cfg.JobTimeout)
	var opts []server.Option
	if a.cfg.TitlesSource != "" {
		job, err := a.newReloadJob(dash)
		if err != nil {
			return err
		}
		reload := job.Run
		if len(a.cfg.ReloadSchedule) > 0 {
			if err := sched.AddJob(job, a.cfg.ReloadSchedule...); err != nil {
				return err
			}
			// Manual runs get the same timeout as scheduled ones.
			reload = func(ctx context.Context) error { return sched.RunJobNow(ctx, job.Name()) }
		}
		if a.cfg.ReloadAtStartup || store.Len() == 0 {
			a.logger.Info("importing catalog at startup", "titles", a.cfg.TitlesSource)
			if err := reload(ctx); err != nil {
				return fmt.Errorf("startup import failed: %w", err)
			}
		}
		opts = append(opts, server.WithReload(reload))
	}

	if err := dash.Refresh(ctx); err != nil {
		a.logger.Error("initial render failed", "error", err)
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(dash, a.storage, append(opts,
		server.WithFileRenderer(files),
		server.WithLogger(a.logger),
	)...)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Listen, "records", dash.View().Total)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
