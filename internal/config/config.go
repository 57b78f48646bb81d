package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the parsed user configuration. It is immutable after Load.
type Config struct {
	History   string    `yaml:"history"`
	Timeout   int       `yaml:"timeout"`
	Feeds     FeedMap   `yaml:"feeds"`
	Notifiers Notifiers `yaml:"notifiers"`
}

// FeedMap maps a feed name to its settings.
type FeedMap map[string]Feed

// Feed holds the settings of a single subscription. Name is the key the
// feed was declared under.
type Feed struct {
	Name      string   `yaml:"-"`
	URL       string   `yaml:"url"`
	Output    string   `yaml:"output"`
	Auth      Auth     `yaml:"auth"`
	Whitelist []string `yaml:"whitelist"`
}

// Auth is the feed authentication variant, decided when the config is
// parsed: a `user:pass` scalar becomes basic auth, a mapping becomes
// query-string parameters, absence means no auth.
type Auth struct {
	Basic  *BasicAuth
	Params map[string]string
}

// BasicAuth carries HTTP basic auth credentials.
type BasicAuth struct {
	User string
	Pass string
}

// UnmarshalYAML picks the auth variant from the YAML node shape.
func (a *Auth) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		user, pass, ok := strings.Cut(s, ":")
		if !ok {
			return fmt.Errorf("auth: expected user:pass, got %q", s)
		}
		a.Basic = &BasicAuth{User: user, Pass: pass}
	case yaml.MappingNode:
		params := map[string]string{}
		if err := value.Decode(&params); err != nil {
			return err
		}
		if len(params) > 0 {
			a.Params = params
		}
	default:
		return fmt.Errorf("auth: expected a user:pass string or a parameter map")
	}
	return nil
}

// Configured reports whether any auth variant is set.
func (a Auth) Configured() bool {
	return a.Basic != nil || len(a.Params) > 0
}

// Apply attaches the credentials to an outgoing request. Query-string
// parameters take precedence over basic auth when both are set.
func (a Auth) Apply(req *http.Request) {
	if len(a.Params) > 0 {
		q := req.URL.Query()
		for key, value := range a.Params {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
		return
	}
	if a.Basic != nil {
		req.SetBasicAuth(a.Basic.User, a.Basic.Pass)
	}
}

// Notifiers holds the optional notification transports.
type Notifiers struct {
	Pushbullet *PushbulletConfig `yaml:"pushbullet"`
	Ntfy       *NtfyConfig       `yaml:"ntfy"`
}

// PushbulletConfig configures the Pushbullet notifier. Device is optional
// and limits pushes to a single device.
type PushbulletConfig struct {
	Token  string `yaml:"token"`
	Device string `yaml:"device"`
}

// NtfyConfig configures the ntfy notifier with a full topic URL.
type NtfyConfig struct {
	Topic string `yaml:"topic"`
}

// Load reads and parses the config file at path. Feed output directories
// and the history path are tilde/env expanded. A missing file, unparsable
// YAML, or an empty feed list is an error; the caller treats it as fatal.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Feeds) == 0 {
		return nil, fmt.Errorf("config %s: no feeds configured", path)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}
	if cfg.History == "" {
		cfg.History = DefaultHistoryPath()
	}
	cfg.History = ExpandPath(cfg.History)
	for name, feed := range cfg.Feeds {
		feed.Name = name
		feed.Output = ExpandPath(feed.Output)
		cfg.Feeds[name] = feed
	}
	return &cfg, nil
}

// SortedFeeds returns the feeds ordered by name, so one run processes them
// in a stable order.
func (c *Config) SortedFeeds() []Feed {
	feeds := make([]Feed, 0, len(c.Feeds))
	for _, feed := range c.Feeds {
		feeds = append(feeds, feed)
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].Name < feeds[j].Name })
	return feeds
}

// HistoryPathFor resolves the history database location: an explicit
// override wins, then the config file's history key, then the default.
func HistoryPathFor(configPath, override string) string {
	if strings.TrimSpace(override) != "" {
		return ExpandPath(override)
	}
	if cfg, err := Load(configPath); err == nil && cfg.History != "" {
		return cfg.History
	}
	return DefaultHistoryPath()
}

// DefaultConfigPath returns the user config location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "podcatch", "config.yaml")
}

// DefaultHistoryPath returns the history database location used when the
// config does not set one.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".config", "podcatch", "history.db")
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	// Expand environment variables like $HOME
	p = os.ExpandEnv(p)
	// Expand leading ~
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
