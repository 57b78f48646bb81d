package list

import (
	"context"
	"fmt"
	"os"
	"strings"

	"podcatch/internal/history"
)

// Options select which history rows to print.
type Options struct {
	HistoryPath string
	Feed        string
	Limit       int
}

// Run prints recent downloads from the history database, newest first.
func Run(ctx context.Context, opts Options) error {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	if !fileExists(opts.HistoryPath) {
		fmt.Printf("Podcatch history not found at %s\n", opts.HistoryPath)
		fmt.Println("Hint: Run 'podcatch run' once to download items and create it, or set history in ~/.config/podcatch/config.yaml.")
		return nil
	}

	store, err := history.Open(opts.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed opening the history database: %w", err)
	}
	defer store.Close()

	rows, err := store.Recent(ctx, opts.Feed, opts.Limit)
	if err != nil {
		return fmt.Errorf("query failed while reading the history database: %w", err)
	}

	if len(rows) == 0 {
		if opts.Feed != "" {
			fmt.Printf("No downloads recorded for feed %q.\n", opts.Feed)
		} else {
			fmt.Println("No downloads recorded yet.")
		}
		return nil
	}

	fmt.Printf("Showing %d most recent downloads:\n\n", len(rows))

	for _, r := range rows {
		fmt.Printf("Date: %s\n", r.Date.Format("2006-01-02 15:04:05"))
		fmt.Printf("Feed: %s\n", r.Feed)
		fmt.Printf("Title: %s\n", r.Title)
		fmt.Printf("URL: %s\n", r.URL)
		fmt.Println(strings.Repeat("-", 80))
	}

	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err == nil {
		return true
	}
	return false
}
