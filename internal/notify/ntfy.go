package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcatch/internal/config"
	"podcatch/internal/version"
)

// Ntfy posts a message per download to an ntfy topic URL.
type Ntfy struct {
	topic  string
	client *http.Client
}

// NewNtfy returns an ntfy notifier for the given topic.
func NewNtfy(cfg config.NtfyConfig, client *http.Client) *Ntfy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Ntfy{topic: cfg.Topic, client: client}
}

func (n *Ntfy) Name() string { return "ntfy" }

// Notify posts the item title to the topic, titled with the feed name.
func (n *Ntfy) Notify(ctx context.Context, feed, title string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topic, strings.NewReader(title))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", fmt.Sprintf("New item from %s", feed))
	req.Header.Set("Tags", "podcatch,download")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
