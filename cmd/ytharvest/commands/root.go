package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/titanous/json5"

	"ytharvest/lib/configutil"
	"ytharvest/lib/filters"
	"ytharvest/lib/harvest"
	"ytharvest/lib/innertube"
	"ytharvest/lib/pagecache"
	"ytharvest/lib/serviceutil"
)

var rootCmd = &cobra.Command{
	Use:   "ytharvest",
	Short: "ytharvest harvests videos, comments and metadata from YouTube listings.",
}

// Config is the optional ytharvest.json5 configuration file.
type Config struct {
	UserAgent      string `json:"user_agent"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	CachePath      string `json:"cache_path"`
}

var (
	cachePath  *string
	filterSpec *string
	limit      *int
	asJSON     *bool
)

func init() {
	cachePath = rootCmd.PersistentFlags().String("cache", "", "Path to a sqlite page cache. Empty disables caching.")
	filterSpec = rootCmd.PersistentFlags().String("filters", "", `A json5 filter specification, e.g. '{view_count: {gte: 1000}}'.`)
	limit = rootCmd.PersistentFlags().Int("limit", 0, "Maximum records to harvest. 0 means unlimited.")
	asJSON = rootCmd.PersistentFlags().Bool("json", false, "Emit newline-delimited JSON instead of a table.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEngine() (*harvest.Engine, func()) {
	cfg, err := configutil.ReadConfig[Config]("ytharvest.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}

	path := *cachePath
	if path == "" {
		path = cfg.CachePath
	}
	// seed pages repeat across subcommand invocations of one run, so
	// always cache them at least in memory
	var cache pagecache.Cache = pagecache.NewMemory()
	cleanup := func() {}
	if path != "" {
		store, err := pagecache.OpenSqlite(path)
		if err != nil {
			serviceutil.Fatal("failed to open page cache", err)
		}
		cache = store
		cleanup = func() { store.Close() }
	}

	client := innertube.NewClient(innertube.ClientOptions{
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		Cache:     cache,
	})
	return harvest.New(client), cleanup
}

func parseFilters() filters.Spec {
	if *filterSpec == "" {
		return nil
	}
	var spec filters.Spec
	if err := json5.Unmarshal([]byte(*filterSpec), &spec); err != nil {
		serviceutil.Fatal("failed to parse filter spec", err)
	}
	return spec
}

func progressLogger() harvest.Progress {
	return func(accepted int) {
		if accepted%100 == 0 {
			slog.Info("harvest progress", "accepted", accepted)
		}
	}
}
