package setup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"podcatch/internal/config"
)

// Run executes the interactive setup flow:
// 1) greet
// 2) ask for feeds (name, URL, output directory, auth, whitelist)
// 3) ask for an optional notifier
// 4) write config
func Run(ctx context.Context) error {
	cfgPath := config.DefaultConfigPath()
	cfgExists := fileExists(cfgPath)

	wiz := newWizardModel(cfgExists)
	p := tea.NewProgram(wiz)
	res, err := p.Run()
	if err != nil {
		return err
	}
	wm, ok := res.(*wizardModel)
	if !ok || wm.cancelled {
		return errors.New("setup cancelled")
	}
	if !wm.override {
		fmt.Println("\nKeeping existing config. Nothing to do.")
		return nil
	}

	if cfgExists {
		_ = config.BackupFile(cfgPath)
	}
	uc := config.UserConfig{
		Feeds:            wm.feeds,
		PushbulletToken:  wm.pushToken,
		PushbulletDevice: wm.pushDevice,
		NtfyTopic:        wm.ntfyTopic,
	}
	if err := config.WriteConfig(uc); err != nil {
		return err
	}
	fmt.Println("\nConfig written to ~/.config/podcatch/config.yaml")

	fmt.Println("\nSetup complete! 🎉")
	fmt.Println("- Run 'podcatch run' to download new items now")
	fmt.Println("- Run 'podcatch schedule install' to download on a schedule (macOS)")
	fmt.Println("- Run 'podcatch server' to expose your feeds and history to an LLM via MCP")
	return nil
}

// -------------- Bubble Tea Wizard --------------
type wizardStep int

const (
	stepIntro wizardStep = iota
	stepConfigChoice
	stepFeedName
	stepFeedURL
	stepFeedOutput
	stepFeedAuth
	stepFeedWhitelist
	stepFeedMore
	stepNotifier
	stepPushToken
	stepPushDevice
	stepNtfyTopic
	stepSummary
	stepDone
)

type wizardModel struct {
	step      wizardStep
	hasCfg    bool
	override  bool
	cancelled bool

	// Feed being collected
	nameInput      textinput.Model
	urlInput       textinput.Model
	outputInput    textinput.Model
	authInput      textinput.Model
	whitelistInput textinput.Model
	current        config.WizardFeed
	feeds          []config.WizardFeed

	// Notifications
	tokenInput  textinput.Model
	deviceInput textinput.Model
	topicInput  textinput.Model
	pushToken   string
	pushDevice  string
	ntfyTopic   string

	errMsg string
}

func newWizardModel(hasCfg bool) *wizardModel {
	name := textinput.New()
	name.Placeholder = "my-show"
	name.Focus()

	feedURL := textinput.New()
	feedURL.Placeholder = "https://example.com/feed.xml"

	output := textinput.New()
	output.Placeholder = "~/Podcasts/my-show (default)"

	auth := textinput.New()
	auth.Placeholder = "user:password (optional)"

	whitelist := textinput.New()
	whitelist.Placeholder = "Episode .*"

	token := textinput.New()
	token.Placeholder = "o.abc123..."
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	device := textinput.New()
	device.Placeholder = "device iden (optional)"

	topic := textinput.New()
	topic.Placeholder = "https://ntfy.sh/my-podcatch-topic"

	return &wizardModel{
		step:           stepIntro,
		hasCfg:         hasCfg,
		nameInput:      name,
		urlInput:       feedURL,
		outputInput:    output,
		authInput:      auth,
		whitelistInput: whitelist,
		tokenInput:     token,
		deviceInput:    device,
		topicInput:     topic,
	}
}

func (m *wizardModel) Init() tea.Cmd { return nil }

// typing reports whether the current step owns a free-text input. The 'q'
// cancel key must stay typeable there (feed URLs carry query strings).
func (m *wizardModel) typing() bool {
	switch m.step {
	case stepFeedName, stepFeedURL, stepFeedOutput, stepFeedAuth, stepFeedWhitelist, stepPushToken, stepPushDevice, stepNtfyTopic:
		return true
	}
	return false
}

func (m *wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			return m, tea.Quit
		}
		if msg.Type == tea.KeyRunes && strings.ToLower(string(msg.Runes)) == "q" && !m.typing() {
			m.cancelled = true
			return m, tea.Quit
		}
		switch m.step {
		case stepIntro:
			if msg.Type == tea.KeyEnter {
				if m.hasCfg {
					m.step = stepConfigChoice
				} else {
					m.override = true
					m.step = stepFeedName
				}
			}
		case stepConfigChoice:
			// o = override, k = keep
			if msg.Type == tea.KeyRunes {
				s := strings.ToLower(string(msg.Runes))
				if s == "o" {
					m.override = true
					m.step = stepFeedName
				} else if s == "k" {
					m.override = false
					m.step = stepDone
					return m, tea.Quit
				}
			}
		case stepFeedName:
			var cmd tea.Cmd
			m.nameInput, cmd = m.nameInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				name := strings.TrimSpace(m.nameInput.Value())
				if name == "" {
					m.errMsg = "Please enter a feed name."
					return m, cmd
				}
				m.current.Name = name
				m.errMsg = ""
				m.step = stepFeedURL
				m.urlInput.Focus()
				return m, nil
			}
			return m, cmd
		case stepFeedURL:
			var cmd tea.Cmd
			m.urlInput, cmd = m.urlInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				v := strings.TrimSpace(m.urlInput.Value())
				if !validHTTPURL(v) {
					m.errMsg = "Please enter a valid http(s) URL."
					return m, cmd
				}
				m.current.URL = v
				m.errMsg = ""
				m.step = stepFeedOutput
				m.outputInput.Focus()
				return m, nil
			}
			return m, cmd
		case stepFeedOutput:
			var cmd tea.Cmd
			m.outputInput, cmd = m.outputInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				v := strings.TrimSpace(m.outputInput.Value())
				if v == "" {
					home, _ := os.UserHomeDir()
					v = filepath.Join(home, "Podcasts", m.current.Name)
				}
				m.current.Output = v
				m.errMsg = ""
				m.step = stepFeedAuth
				m.authInput.Focus()
				return m, nil
			}
			return m, cmd
		case stepFeedAuth:
			var cmd tea.Cmd
			m.authInput, cmd = m.authInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				v := strings.TrimSpace(m.authInput.Value())
				if v != "" && !strings.Contains(v, ":") {
					m.errMsg = "Use user:password format, or leave empty to skip."
					return m, cmd
				}
				m.current.Auth = v
				m.errMsg = ""
				m.step = stepFeedWhitelist
				m.whitelistInput.Focus()
				return m, nil
			}
			return m, cmd
		case stepFeedWhitelist:
			var cmd tea.Cmd
			m.whitelistInput, cmd = m.whitelistInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				v := strings.TrimSpace(m.whitelistInput.Value())
				if v == "" {
					m.feeds = append(m.feeds, m.current)
					m.errMsg = ""
					m.step = stepFeedMore
					return m, nil
				}
				if _, err := regexp.Compile(v); err != nil {
					m.errMsg = fmt.Sprintf("Invalid pattern: %v", err)
					return m, cmd
				}
				m.current.Whitelist = append(m.current.Whitelist, v)
				m.whitelistInput.SetValue("")
				m.errMsg = ""
				return m, nil
			}
			return m, cmd
		case stepFeedMore:
			// y = add another feed, n = continue
			if msg.Type == tea.KeyRunes {
				s := strings.ToLower(string(msg.Runes))
				if s == "y" {
					m.current = config.WizardFeed{}
					m.nameInput.SetValue("")
					m.urlInput.SetValue("")
					m.outputInput.SetValue("")
					m.authInput.SetValue("")
					m.whitelistInput.SetValue("")
					m.nameInput.Focus()
					m.step = stepFeedName
				} else if s == "n" {
					m.step = stepNotifier
				}
			}
		case stepNotifier:
			if msg.Type == tea.KeyRunes {
				s := strings.ToLower(string(msg.Runes))
				switch s {
				case "p":
					m.step = stepPushToken
					m.tokenInput.Focus()
				case "n":
					m.step = stepNtfyTopic
					m.topicInput.Focus()
				case "s":
					m.step = stepSummary
				}
			}
		case stepPushToken:
			var cmd tea.Cmd
			m.tokenInput, cmd = m.tokenInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				v := strings.TrimSpace(m.tokenInput.Value())
				if v == "" {
					m.errMsg = "Please enter a Pushbullet access token."
					return m, cmd
				}
				m.pushToken = v
				m.errMsg = ""
				m.step = stepPushDevice
				m.deviceInput.Focus()
				return m, nil
			}
			return m, cmd
		case stepPushDevice:
			var cmd tea.Cmd
			m.deviceInput, cmd = m.deviceInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				m.pushDevice = strings.TrimSpace(m.deviceInput.Value())
				m.errMsg = ""
				m.step = stepSummary
				return m, nil
			}
			return m, cmd
		case stepNtfyTopic:
			var cmd tea.Cmd
			m.topicInput, cmd = m.topicInput.Update(msg)
			if msg.Type == tea.KeyEnter {
				v := strings.TrimSpace(m.topicInput.Value())
				if !validHTTPURL(v) {
					m.errMsg = "Please enter the full topic URL, like https://ntfy.sh/my-topic."
					return m, cmd
				}
				m.ntfyTopic = v
				m.errMsg = ""
				m.step = stepSummary
				return m, nil
			}
			return m, cmd
		case stepSummary:
			if msg.Type == tea.KeyEnter {
				m.step = stepDone
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *wizardModel) View() string {
	b := &strings.Builder{}
	switch m.step {
	case stepIntro:
		fmt.Fprintln(b, "Welcome to Podcatch setup! 🎧")
		fmt.Fprintln(b, "This wizard will set up your podcast feeds and notifications.")
		fmt.Fprintln(b, "\nPress Enter to begin · q to quit")
	case stepConfigChoice:
		fmt.Fprintf(b, "Found an existing config at %s\n", config.DefaultConfigPath())
		fmt.Fprintln(b, "Override it (will create a .bak) or keep it?")
		fmt.Fprintln(b, "[o] Override    [k] Keep existing")
	case stepFeedName:
		fmt.Fprintln(b, "Step 1 – Feed Name")
		fmt.Fprintln(b, "A short name for this feed. It labels downloads in the history.")
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, m.nameInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepFeedURL:
		fmt.Fprintln(b, "Step 2 – Feed URL")
		fmt.Fprintln(b, "The RSS or Atom URL of the podcast.")
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, m.urlInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepFeedOutput:
		fmt.Fprintln(b, "Step 3 – Output Directory")
		fmt.Fprintln(b, "Where downloaded items go. Leave empty for the default.")
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, m.outputInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepFeedAuth:
		fmt.Fprintln(b, "Step 4 – Authentication (optional)")
		fmt.Fprintln(b, "Credentials for private feeds, sent with every request.")
		fmt.Fprintln(b, "Leave empty to skip.")
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, m.authInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepFeedWhitelist:
		fmt.Fprintln(b, "Step 5 – Title Whitelist (optional)")
		fmt.Fprintln(b, "Only items whose title starts with one of these patterns download.")
		fmt.Fprintln(b, "Enter one regular expression at a time. Leave empty to continue.")
		if len(m.current.Whitelist) > 0 {
			fmt.Fprintln(b, "\nPatterns so far:")
			for _, p := range m.current.Whitelist {
				fmt.Fprintf(b, "  - %s\n", p)
			}
		}
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, m.whitelistInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to add · empty Enter to continue")
	case stepFeedMore:
		fmt.Fprintf(b, "Added feed %q (%d so far)\n", m.current.Name, len(m.feeds))
		fmt.Fprintln(b, "Add another feed?")
		fmt.Fprintln(b, "[y] Yes    [n] No")
	case stepNotifier:
		fmt.Fprintln(b, "Step 6 – Notifications (optional)")
		fmt.Fprintln(b, "Get a push notification for every downloaded item.")
		fmt.Fprintln(b, "[p] Pushbullet    [n] ntfy.sh    [s] Skip")
	case stepPushToken:
		fmt.Fprintln(b, "Pushbullet access token (from pushbullet.com/#settings):")
		fmt.Fprintln(b, m.tokenInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepPushDevice:
		fmt.Fprintln(b, "Pushbullet device iden to target a single device.")
		fmt.Fprintln(b, "Leave empty to push to all devices.")
		fmt.Fprintln(b, m.deviceInput.View())
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepNtfyTopic:
		fmt.Fprintln(b, "ntfy topic URL to publish to:")
		fmt.Fprintln(b, m.topicInput.View())
		m.viewError(b)
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepSummary:
		fmt.Fprintln(b, "Summary")
		for _, f := range m.feeds {
			fmt.Fprintf(b, "  %s: %s\n", f.Name, f.URL)
			fmt.Fprintf(b, "    output: %s\n", f.Output)
			if strings.TrimSpace(f.Auth) != "" {
				fmt.Fprintln(b, "    auth: configured")
			}
			if len(f.Whitelist) > 0 {
				fmt.Fprintf(b, "    whitelist: %s\n", strings.Join(f.Whitelist, ", "))
			}
		}
		switch {
		case strings.TrimSpace(m.pushToken) != "":
			fmt.Fprintln(b, "Notifications: Pushbullet")
		case strings.TrimSpace(m.ntfyTopic) != "":
			fmt.Fprintf(b, "Notifications: ntfy topic %s\n", m.ntfyTopic)
		default:
			fmt.Fprintln(b, "Notifications: none")
		}
		if m.hasCfg {
			fmt.Fprintln(b, "\nThe existing config will be backed up before writing.")
		} else {
			fmt.Fprintln(b, "\nThe configuration file will be written to ~/.config/podcatch/config.yaml.")
		}
		fmt.Fprintln(b, "\nPress Enter to finish · q to cancel")
	case stepDone:
		fmt.Fprintln(b, "Finishing…")
	}
	return b.String()
}

func (m *wizardModel) viewError(b *strings.Builder) {
	if m.errMsg != "" {
		fmt.Fprintf(b, "\n%s\n", m.errMsg)
	}
}

func validHTTPURL(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Helpers
func fileExists(p string) bool {
	if p == "" {
		return false
	}
	if _, err := os.Stat(p); err == nil {
		return true
	}
	return false
}
