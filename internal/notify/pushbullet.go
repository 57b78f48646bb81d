package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcatch/internal/config"
	"podcatch/internal/version"
)

const pushbulletEndpoint = "https://api.pushbullet.com/v2/pushes"

// Pushbullet pushes a note per download through the Pushbullet API. When a
// device iden is configured the note goes to that device only.
type Pushbullet struct {
	endpoint string
	token    string
	device   string
	client   *http.Client
}

// NewPushbullet returns a Pushbullet notifier for the given credentials.
func NewPushbullet(cfg config.PushbulletConfig, client *http.Client) *Pushbullet {
	if client == nil {
		client = http.DefaultClient
	}
	return &Pushbullet{
		endpoint: pushbulletEndpoint,
		token:    cfg.Token,
		device:   cfg.Device,
		client:   client,
	}
}

func (p *Pushbullet) Name() string { return "pushbullet" }

type pushbulletPush struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	DeviceIden string `json:"device_iden,omitempty"`
}

// Notify sends a note titled with the feed name and the item title as body.
func (p *Pushbullet) Notify(ctx context.Context, feed, title string) error {
	push := pushbulletPush{
		Type:       "note",
		Title:      fmt.Sprintf("New item from %s", feed),
		Body:       title,
		DeviceIden: p.device,
	}
	payload, err := json.Marshal(push)
	if err != nil {
		return fmt.Errorf("encode pushbullet note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build pushbullet request: %w", err)
	}
	req.Header.Set("Access-Token", p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send pushbullet note: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("pushbullet returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
