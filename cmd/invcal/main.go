package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"invcal/internal/calview"
	"invcal/internal/capture"
	"invcal/internal/config"
	"invcal/internal/events"
	"invcal/internal/holiday"
	"invcal/internal/ics"
	appLog "invcal/internal/log"
	"invcal/internal/web"
)

const defaultConfigPath = "/etc/invcal/config.yaml"

var (
	flagConfigPath string
	flagListen     string
	flagDebug      bool
)

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "invcal",
		Short:         "Calendar service of the inventory management console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calendar web server and refresh scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a one-off PNG snapshot of the calendar page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd.Context())
		},
	}

	root.AddCommand(serveCmd, snapshotCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer appLog.Sync()

	if err := root.ExecuteContext(ctx); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := flagConfigPath
	if path == "" {
		path = os.Getenv("INVCAL_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	if flagDebug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	cfg, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Listen = flagListen
		cfg.Normalize()
	}

	loc := resolveLocation(cfg.Timezone)

	appLog.Info("invcal starting",
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"ics_count", len(cfg.ICS),
		"snapshot_enabled", cfg.Snapshot.Enabled,
	)

	apiClient := events.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.DefaultAuthor, loc)
	holClient := holiday.NewClient(cfg.Holiday.BaseURL, cfg.Holiday.ServiceKey)
	holStore := holiday.NewStore(holClient, 0)
	fetcher := ics.NewFetcher(filepath.Join(cfg.CacheDir, "ics-cache"))

	server := web.NewServer(cfg, loc, apiClient, holStore, fetcher)

	// Warm once at startup, then on the configured cron schedule.
	warm := func() { warmCaches(ctx, loc, holStore) }
	warm()

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RefreshCron, warm); err != nil {
		appLog.Error("invalid refresh cron; periodic warmup disabled", err, "refresh", cfg.RefreshCron)
	}
	if cfg.Snapshot.Enabled {
		if _, err := sched.AddFunc(cfg.RefreshCron, func() { captureSnapshot(ctx, cfg) }); err != nil {
			appLog.Error("invalid snapshot cron; periodic snapshot disabled", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server listening", "listen", "http://"+cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}

	appLog.Info("invcal exiting")
	return nil
}

// warmCaches prefetches the holiday months the currently visible month grid
// touches, so the first grid request after a refresh never blocks on the
// holiday API.
func warmCaches(ctx context.Context, loc *time.Location, holStore *holiday.Store) {
	now := time.Now().In(loc)
	cells := calview.MonthGrid(now)
	first := cells[0].Date
	last := cells[len(cells)-1].Date

	warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	holStore.EnsureRange(warmCtx, first, last)
	appLog.Debug("cache warmup done",
		"first", calview.DayKey(first), "last", calview.DayKey(last))
}

func captureSnapshot(ctx context.Context, cfg *config.Config) {
	opts := capture.Options{
		URL:        cfg.Snapshot.URL,
		OutputPath: cfg.Snapshot.OutputPath,
		Width:      cfg.Snapshot.Width,
		Height:     cfg.Snapshot.Height,
	}
	if err := capture.SnapshotPNG(ctx, opts); err != nil {
		appLog.Error("snapshot capture failed", err, "url", opts.URL)
		return
	}
	appLog.Info("snapshot captured", "output", opts.OutputPath)
}

func runSnapshot(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return capture.SnapshotPNG(ctx, capture.Options{
		URL:        cfg.Snapshot.URL,
		OutputPath: cfg.Snapshot.OutputPath,
		Width:      cfg.Snapshot.Width,
		Height:     cfg.Snapshot.Height,
	})
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
