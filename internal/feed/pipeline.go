package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcatch/internal/textutil"
)

// History is the slice of the history store the pipeline needs.
type History interface {
	Has(ctx context.Context, feed, title string) (time.Time, bool, error)
	Record(ctx context.Context, feed, url, title string) error
}

// Fetcher downloads one enclosure to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Process walks entries oldest-first and downloads the ones that pass the
// whitelist and have not been seen before. Each success is recorded in the
// history and reported through onDownload with the sanitized title. It
// returns how many enclosures were downloaded. Per-entry problems are
// logged and skipped; a history failure stops the walk because every
// further decision would be unreliable.
func (f *Feed) Process(ctx context.Context, entries []Entry, store History, dl Fetcher, onDownload func(feed, title string)) (int, error) {
	downloaded := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}
		entry := entries[i]
		title := textutil.SanitizeTitle(entry.Title)

		// The raw title is what the whitelist and the history key on; the
		// sanitized form is for filenames and logs.
		if !f.matchesWhitelist(entry.Title) {
			f.logger.Debug("skipping item not on whitelist", "title", title)
			continue
		}
		at, seen, err := store.Has(ctx, f.cfg.Name, entry.Title)
		if err != nil {
			return downloaded, err
		}
		if seen {
			f.logger.Debug("skipping item downloaded before", "title", title, "at", at)
			continue
		}

		enclosure, ok := firstEnclosure(entry)
		if !ok {
			f.logger.Warn("item has no enclosure", "title", title)
			continue
		}
		dest := filepath.Join(f.cfg.Output, fmt.Sprintf("%s.%s", title, mimeSubtype(enclosure.Type)))
		if _, err := os.Stat(dest); err == nil {
			f.logger.Debug("skipping item already on disk", "path", dest)
			continue
		}

		f.logger.Info("downloading item", "title", title)
		if err := dl.Fetch(ctx, enclosure.URL, dest); err != nil {
			f.logger.Warn("download failed", "title", title, "error", err)
			continue
		}
		if err := store.Record(ctx, f.cfg.Name, enclosure.URL, entry.Title); err != nil {
			return downloaded, err
		}
		downloaded++
		if onDownload != nil {
			onDownload(f.cfg.Name, title)
		}
	}
	return downloaded, nil
}

// firstEnclosure returns the first enclosure with a usable URL.
func firstEnclosure(entry Entry) (Enclosure, bool) {
	for _, enc := range entry.Enclosures {
		if strings.TrimSpace(enc.URL) != "" {
			return enc, true
		}
	}
	return Enclosure{}, false
}

// mimeSubtype returns the segment after the last slash of a MIME type,
// so audio/mpeg becomes the file extension mpeg.
func mimeSubtype(mime string) string {
	if i := strings.LastIndex(mime, "/"); i >= 0 {
		return mime[i+1:]
	}
	return mime
}
