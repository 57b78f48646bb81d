// Package notify pushes a short message for every downloaded item.
// Notifications are best-effort: a dead transport is logged and ignored.
package notify

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"podcatch/internal/config"
)

// Notifier announces one downloaded item.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, feed, title string) error
}

// FromConfig builds the configured notifiers. Entries missing their
// required fields are logged and dropped.
func FromConfig(cfg config.Notifiers, client *http.Client, logger *slog.Logger) []Notifier {
	var out []Notifier
	if pb := cfg.Pushbullet; pb != nil {
		if strings.TrimSpace(pb.Token) == "" {
			logger.Warn("pushbullet notifier has no token, skipping")
		} else {
			out = append(out, NewPushbullet(*pb, client))
		}
	}
	if nt := cfg.Ntfy; nt != nil {
		if strings.TrimSpace(nt.Topic) == "" {
			logger.Warn("ntfy notifier has no topic, skipping")
		} else {
			out = append(out, NewNtfy(*nt, client))
		}
	}
	return out
}

// Send fans one download event out to every notifier. Failures are logged
// and swallowed so delivery problems never stop a run.
func Send(ctx context.Context, notifiers []Notifier, feed, title string, logger *slog.Logger) {
	for _, n := range notifiers {
		if err := n.Notify(ctx, feed, title); err != nil {
			logger.Warn("notification failed", "notifier", n.Name(), "error", err)
		}
	}
}
