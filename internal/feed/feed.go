package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"podcatch/internal/config"
	"podcatch/internal/version"
)

// Classification markers for feed failures. The run loop skips the feed on
// any of these and carries on with the rest.
var (
	ErrConfig = errors.New("feed config")
	ErrFetch  = errors.New("feed fetch")
	ErrParse  = errors.New("feed parse")
)

// Entry is one feed item reduced to what the pipeline needs. Entries are
// read-only snapshots; nothing is written back to the feed.
type Entry struct {
	Title      string
	Enclosures []Enclosure
}

// Enclosure is a media attachment on an entry.
type Enclosure struct {
	URL  string
	Type string
}

// Feed fetches one configured subscription and walks its entries.
type Feed struct {
	cfg       config.Feed
	client    *http.Client
	parser    *gofeed.Parser
	whitelist []*regexp.Regexp
	logger    *slog.Logger
}

// New validates the feed settings and compiles the whitelist patterns.
// Patterns are anchored to the start of the title, matching how they are
// applied later. Validation and compile failures are tagged ErrConfig.
func New(cfg config.Feed, client *http.Client, logger *slog.Logger) (*Feed, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: %s: no url", ErrConfig, cfg.Name)
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return nil, fmt.Errorf("%w: %s: no output directory", ErrConfig, cfg.Name)
	}
	if client == nil {
		client = http.DefaultClient
	}
	whitelist := make([]*regexp.Regexp, 0, len(cfg.Whitelist))
	for _, pattern := range cfg.Whitelist {
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: whitelist pattern %q: %w", ErrConfig, cfg.Name, pattern, err)
		}
		whitelist = append(whitelist, re)
	}
	return &Feed{
		cfg:       cfg,
		client:    client,
		parser:    gofeed.NewParser(),
		whitelist: whitelist,
		logger:    logger.With("feed", cfg.Name),
	}, nil
}

// Name returns the config key the feed was declared under.
func (f *Feed) Name() string {
	return f.cfg.Name
}

// Fetch retrieves and parses the feed, returning entries in document order
// (newest first, as served). Transport and status failures are tagged
// ErrFetch, malformed documents ErrParse; neither is retried.
func (f *Feed) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, f.cfg.URL, err)
	}
	req.Header.Set("User-Agent", version.UserAgent)
	f.cfg.Auth.Apply(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, f.cfg.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, f.cfg.URL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, f.cfg.URL, err)
	}

	parsed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, f.cfg.URL, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entry := Entry{Title: item.Title}
		for _, enc := range item.Enclosures {
			if enc == nil {
				continue
			}
			entry.Enclosures = append(entry.Enclosures, Enclosure{URL: enc.URL, Type: enc.Type})
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// matchesWhitelist reports whether the raw title may download. An empty
// whitelist allows everything; otherwise at least one pattern must match
// at the start of the title.
func (f *Feed) matchesWhitelist(title string) bool {
	if len(f.whitelist) == 0 {
		return true
	}
	for _, re := range f.whitelist {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
