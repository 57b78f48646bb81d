// Package run executes one full pass over every configured feed.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"podcatch/internal/config"
	"podcatch/internal/download"
	"podcatch/internal/feed"
	"podcatch/internal/history"
	"podcatch/internal/notify"
)

// Options allow overriding config values from CLI flags.
type Options struct {
	ConfigPath  string
	HistoryPath string
	NoProgress  bool
}

// Run executes a single pass: every feed is fetched and its new items are
// downloaded, one feed at a time, one item at a time. Scheduling is
// delegated to launchd/cron. A feed that cannot be built, fetched, or
// parsed is skipped with a warning; an unusable config or history store
// aborts the whole run.
func Run(ctx context.Context, opts Options, logger *slog.Logger) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	historyPath := cfg.History
	if opts.HistoryPath != "" {
		historyPath = config.ExpandPath(opts.HistoryPath)
	}
	store, err := history.Open(historyPath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	// Enclosures can be large and slow, so downloads use a client without
	// an overall deadline; cancellation still comes from ctx.
	downloadClient := &http.Client{}
	notifiers := notify.FromConfig(cfg.Notifiers, client, logger)

	logger.Info("starting run", "feeds", len(cfg.Feeds), "history", historyPath)
	for _, feedCfg := range cfg.SortedFeeds() {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("processing feed", "feed", feedCfg.Name)
		f, err := feed.New(feedCfg, client, logger)
		if err != nil {
			logger.Warn("skipping feed", "feed", feedCfg.Name, "error", err)
			continue
		}
		entries, err := f.Fetch(ctx)
		if err != nil {
			logger.Warn("skipping feed", "feed", feedCfg.Name, "error", err)
			continue
		}
		dl := download.New(downloadClient, feedCfg.Auth, !opts.NoProgress, logger.With("feed", feedCfg.Name))
		n, err := f.Process(ctx, entries, store, dl, func(feedName, title string) {
			notify.Send(ctx, notifiers, feedName, title, logger)
		})
		if err != nil {
			return fmt.Errorf("feed %s: %w", feedCfg.Name, err)
		}
		logger.Info("downloaded items", "feed", feedCfg.Name, "count", n)
	}
	logger.Info("run finished")
	return nil
}
