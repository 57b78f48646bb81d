package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WizardFeed is one subscription collected during setup.
type WizardFeed struct {
	Name      string
	URL       string
	Output    string
	Auth      string
	Whitelist []string
}

// UserConfig represents the user configuration collected during setup
type UserConfig struct {
	Feeds            []WizardFeed
	HistoryPath      string
	PushbulletToken  string
	PushbulletDevice string
	NtfyTopic        string
}

// WriteConfig writes the user configuration to the config file
func WriteConfig(uc UserConfig) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".config", "podcatch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")

	// Preserve an existing history path if present (avoid clobber). If no file exists, no-op.
	prevHistory := ""
	if prev, err := loadExistingConfig(path); err == nil {
		if v, ok := prev["history"].(string); ok && strings.TrimSpace(v) != "" {
			prevHistory = v
		}
	}

	// Manually render YAML so comments survive
	var sb strings.Builder
	sb.WriteString("# Podcatch configuration\n")

	historyPath := uc.HistoryPath
	if strings.TrimSpace(prevHistory) != "" {
		historyPath = prevHistory
	}
	if strings.TrimSpace(historyPath) != "" {
		sb.WriteString(fmt.Sprintf("history: %q\n", historyPath))
	}

	if len(uc.Feeds) > 0 {
		sb.WriteString("feeds:\n")
		for _, feed := range uc.Feeds {
			sb.WriteString(fmt.Sprintf("  %s:\n", strings.TrimSpace(feed.Name)))
			sb.WriteString(fmt.Sprintf("    url: %s\n", strings.TrimSpace(feed.URL)))
			sb.WriteString(fmt.Sprintf("    output: %q\n", strings.TrimSpace(feed.Output)))
			if strings.TrimSpace(feed.Auth) != "" {
				sb.WriteString(fmt.Sprintf("    auth: %q\n", strings.TrimSpace(feed.Auth)))
			}
			if len(feed.Whitelist) > 0 {
				sb.WriteString("    whitelist:  # only titles matching one of these download\n")
				for _, pattern := range feed.Whitelist {
					sb.WriteString(fmt.Sprintf("      - %q\n", pattern))
				}
			}
		}
	}

	if strings.TrimSpace(uc.PushbulletToken) != "" || strings.TrimSpace(uc.NtfyTopic) != "" {
		sb.WriteString("notifiers:\n")
		if strings.TrimSpace(uc.PushbulletToken) != "" {
			sb.WriteString("  pushbullet:\n")
			sb.WriteString(fmt.Sprintf("    token: %q\n", uc.PushbulletToken))
			if strings.TrimSpace(uc.PushbulletDevice) != "" {
				sb.WriteString(fmt.Sprintf("    device: %q\n", uc.PushbulletDevice))
			}
		}
		if strings.TrimSpace(uc.NtfyTopic) != "" {
			sb.WriteString("  ntfy:\n")
			sb.WriteString(fmt.Sprintf("    topic: %s\n", strings.TrimSpace(uc.NtfyTopic)))
		}
	}

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// loadExistingConfig loads existing configuration from a file
func loadExistingConfig(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// BackupFile creates a backup of the specified file with a timestamp
func BackupFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ts := time.Now().Format("20060102-150405")
	bak := path + ".bak-" + ts
	return os.WriteFile(bak, b, 0o644)
}
