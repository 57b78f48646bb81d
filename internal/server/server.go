package server

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"podcatch/internal/config"
	"podcatch/internal/history"
	"podcatch/internal/version"
)

// Options locate the config file and history database the tools read.
type Options struct {
	ConfigPath  string
	HistoryPath string
}

type ListHistoryParams struct {
	Feed  *string `json:"feed,omitempty"`
	Limit *int    `json:"limit,omitempty"`
}

type ListFeedsParams struct{}

func Run(ctx context.Context, opts Options) error {
	s := &service{opts: opts}
	server := mcp.NewServer(&mcp.Implementation{Name: "podcatch", Version: version.Version}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "list_history", Description: "List recorded podcast downloads, newest first"}, s.handleListHistory)
	mcp.AddTool(server, &mcp.Tool{Name: "list_feeds", Description: "List the configured podcast feeds"}, s.handleListFeeds)

	return server.Run(ctx, &mcp.StdioTransport{})
}

type service struct {
	opts Options
}

// Returns recorded downloads, optionally filtered to a single feed
func (s *service) handleListHistory(ctx context.Context, req *mcp.CallToolRequest, p ListHistoryParams) (*mcp.CallToolResult, any, error) {
	lim := 50
	if p.Limit != nil && *p.Limit > 0 {
		lim = *p.Limit
	}
	feed := ""
	if p.Feed != nil {
		feed = strings.TrimSpace(*p.Feed)
	}

	dbPath := s.opts.HistoryPath
	if !fileExists(dbPath) {
		return nil, map[string]any{
			"ok":      false,
			"message": fmt.Sprintf("Podcatch history not found at %s", dbPath),
			"hint":    "Run 'podcatch run' once to download items and create it, or set history in ~/.config/podcatch/config.yaml.",
			"db_path": dbPath,
		}, nil
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return nil, map[string]any{
			"ok":      false,
			"message": "Failed opening the history database",
			"error":   err.Error(),
			"db_path": dbPath,
		}, nil
	}
	defer store.Close()

	rows, err := store.Recent(ctx, feed, lim)
	if err != nil {
		return nil, map[string]any{
			"ok":      false,
			"message": "Query failed while reading the history database",
			"error":   err.Error(),
			"db_path": dbPath,
		}, nil
	}

	type item struct {
		Date  time.Time `json:"date"`
		Feed  string    `json:"feed"`
		Title string    `json:"title"`
		URL   string    `json:"url"`
	}
	var items []item
	for _, r := range rows {
		items = append(items, item{Date: r.Date, Feed: r.Feed, Title: r.Title, URL: r.URL})
	}
	return nil, map[string]any{"count": len(items), "items": items}, nil
}

// Returns the feeds from the config file without their credentials
func (s *service) handleListFeeds(ctx context.Context, req *mcp.CallToolRequest, p ListFeedsParams) (*mcp.CallToolResult, any, error) {
	cfg, err := config.Load(s.opts.ConfigPath)
	if err != nil {
		return nil, map[string]any{
			"ok":      false,
			"message": "Failed loading the config file",
			"error":   err.Error(),
			"hint":    "Run 'podcatch setup' to create one.",
		}, nil
	}

	type item struct {
		Name      string   `json:"name"`
		URL       string   `json:"url"`
		Output    string   `json:"output"`
		Whitelist []string `json:"whitelist,omitempty"`
		Auth      bool     `json:"auth"`
	}
	var items []item
	for _, f := range cfg.SortedFeeds() {
		items = append(items, item{
			Name:      f.Name,
			URL:       f.URL,
			Output:    f.Output,
			Whitelist: f.Whitelist,
			Auth:      f.Auth.Configured(),
		})
	}
	return nil, map[string]any{"count": len(items), "items": items}, nil
}

// Check if a file exists, validating the p search path
func fileExists(p string) bool {
	if p == "" {
		return false
	}
	if _, err := os.Stat(p); err == nil {
		return true
	}
	return false
}
