package setup

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestWizardModel_IntroStep(t *testing.T) {
	t.Run("IntroStepWithExistingConfig", func(t *testing.T) {
		model := newWizardModel(true)
		if model.step != stepIntro {
			t.Errorf("expected stepIntro, got %v", model.step)
		}

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepConfigChoice {
			t.Errorf("expected stepConfigChoice, got %v", wm.step)
		}
	})

	t.Run("IntroStepWithoutExistingConfig", func(t *testing.T) {
		model := newWizardModel(false)

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedName {
			t.Errorf("expected stepFeedName, got %v", wm.step)
		}
		if !wm.override {
			t.Error("expected override to be true")
		}
	})

	t.Run("GlobalQuit", func(t *testing.T) {
		model := newWizardModel(false)

		newModel, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Error("expected quit command")
		}
		wm := newModel.(*wizardModel)
		if !wm.cancelled {
			t.Error("expected cancelled to be true")
		}
	})

	t.Run("QuitWithQ", func(t *testing.T) {
		model := newWizardModel(false)

		newModel, cmd := model.Update(keyRune('q'))
		if cmd == nil {
			t.Error("expected quit command")
		}
		wm := newModel.(*wizardModel)
		if !wm.cancelled {
			t.Error("expected cancelled to be true")
		}
	})
}

func TestWizardModel_ConfigChoiceStep(t *testing.T) {
	t.Run("OverrideChoice", func(t *testing.T) {
		model := newWizardModel(true)
		model.step = stepConfigChoice

		newModel, _ := model.Update(keyRune('o'))
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedName {
			t.Errorf("expected stepFeedName, got %v", wm.step)
		}
		if !wm.override {
			t.Error("expected override to be true")
		}
	})

	t.Run("KeepChoice", func(t *testing.T) {
		model := newWizardModel(true)
		model.step = stepConfigChoice

		newModel, cmd := model.Update(keyRune('k'))
		if cmd == nil {
			t.Error("expected quit command")
		}
		wm := newModel.(*wizardModel)
		if wm.override {
			t.Error("expected override to be false")
		}
		if wm.cancelled {
			t.Error("keep is not a cancel")
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		model := newWizardModel(true)
		model.step = stepConfigChoice

		newModel, _ := model.Update(keyRune('O'))
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedName {
			t.Errorf("expected stepFeedName, got %v", wm.step)
		}
	})
}

func TestWizardModel_FeedNameStep(t *testing.T) {
	t.Run("EmptyNameRejected", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedName
		model.nameInput.SetValue("")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedName {
			t.Errorf("expected to stay on stepFeedName, got %v", wm.step)
		}
		if wm.errMsg == "" {
			t.Error("expected error message")
		}
	})

	t.Run("ValidName", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedName
		model.nameInput.SetValue("  myshow  ")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedURL {
			t.Errorf("expected stepFeedURL, got %v", wm.step)
		}
		if wm.current.Name != "myshow" {
			t.Errorf("expected trimmed name %q, got %q", "myshow", wm.current.Name)
		}
	})

	t.Run("QRemainsTypeable", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedName
		model.nameInput.Focus()

		newModel, _ := model.Update(keyRune('q'))
		wm := newModel.(*wizardModel)
		if wm.cancelled {
			t.Error("'q' must not cancel while typing")
		}
		if got := wm.nameInput.Value(); got != "q" {
			t.Errorf("expected input value %q, got %q", "q", got)
		}
	})
}

func TestWizardModel_FeedURLStep(t *testing.T) {
	t.Run("InvalidURLRejected", func(t *testing.T) {
		for _, bad := range []string{"", "not a url", "ftp://example.com/feed", "https://"} {
			model := newWizardModel(false)
			model.step = stepFeedURL
			model.urlInput.SetValue(bad)

			newModel, _ := model.Update(keyEnter())
			wm := newModel.(*wizardModel)
			if wm.step != stepFeedURL {
				t.Errorf("input %q: expected to stay on stepFeedURL, got %v", bad, wm.step)
			}
			if wm.errMsg == "" {
				t.Errorf("input %q: expected error message", bad)
			}
		}
	})

	t.Run("ValidURL", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedURL
		model.urlInput.SetValue("https://example.com/feed.xml?q=1")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedOutput {
			t.Errorf("expected stepFeedOutput, got %v", wm.step)
		}
		if wm.current.URL != "https://example.com/feed.xml?q=1" {
			t.Errorf("unexpected URL %q", wm.current.URL)
		}
	})
}

func TestWizardModel_FeedOutputStep(t *testing.T) {
	t.Run("EmptyUsesDefault", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedOutput
		model.current.Name = "myshow"
		model.outputInput.SetValue("")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedAuth {
			t.Errorf("expected stepFeedAuth, got %v", wm.step)
		}
		if !strings.HasSuffix(wm.current.Output, "Podcasts/myshow") {
			t.Errorf("expected default output under Podcasts/myshow, got %q", wm.current.Output)
		}
	})

	t.Run("ExplicitOutput", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedOutput
		model.outputInput.SetValue("/tmp/episodes")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.current.Output != "/tmp/episodes" {
			t.Errorf("expected output %q, got %q", "/tmp/episodes", wm.current.Output)
		}
	})
}

func TestWizardModel_FeedAuthStep(t *testing.T) {
	t.Run("MissingColonRejected", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedAuth
		model.authInput.SetValue("justauser")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedAuth {
			t.Errorf("expected to stay on stepFeedAuth, got %v", wm.step)
		}
		if wm.errMsg == "" {
			t.Error("expected error message")
		}
	})

	t.Run("EmptySkips", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedAuth
		model.authInput.SetValue("")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedWhitelist {
			t.Errorf("expected stepFeedWhitelist, got %v", wm.step)
		}
		if wm.current.Auth != "" {
			t.Errorf("expected empty auth, got %q", wm.current.Auth)
		}
	})

	t.Run("UserPass", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedAuth
		model.authInput.SetValue("user:pa:ss")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.current.Auth != "user:pa:ss" {
			t.Errorf("expected auth kept verbatim, got %q", wm.current.Auth)
		}
	})
}

func TestWizardModel_FeedWhitelistStep(t *testing.T) {
	t.Run("InvalidPatternRejected", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedWhitelist
		model.whitelistInput.SetValue("Episode [")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedWhitelist {
			t.Errorf("expected to stay on stepFeedWhitelist, got %v", wm.step)
		}
		if wm.errMsg == "" {
			t.Error("expected error message")
		}
		if len(wm.current.Whitelist) != 0 {
			t.Errorf("invalid pattern must not be added, got %v", wm.current.Whitelist)
		}
	})

	t.Run("PatternsAccumulate", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedWhitelist

		model.whitelistInput.SetValue("Episode .*")
		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedWhitelist {
			t.Errorf("expected to stay on stepFeedWhitelist, got %v", wm.step)
		}
		if wm.whitelistInput.Value() != "" {
			t.Errorf("expected input cleared, got %q", wm.whitelistInput.Value())
		}

		wm.whitelistInput.SetValue("Bonus|Extra")
		newModel, _ = wm.Update(keyEnter())
		wm = newModel.(*wizardModel)
		if len(wm.current.Whitelist) != 2 {
			t.Fatalf("expected 2 patterns, got %d", len(wm.current.Whitelist))
		}
		if wm.current.Whitelist[0] != "Episode .*" || wm.current.Whitelist[1] != "Bonus|Extra" {
			t.Errorf("unexpected patterns %v", wm.current.Whitelist)
		}
	})

	t.Run("EmptyFinishesFeed", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedWhitelist
		model.current.Name = "myshow"
		model.whitelistInput.SetValue("")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedMore {
			t.Errorf("expected stepFeedMore, got %v", wm.step)
		}
		if len(wm.feeds) != 1 || wm.feeds[0].Name != "myshow" {
			t.Errorf("expected one collected feed, got %v", wm.feeds)
		}
	})
}

func TestWizardModel_FeedMoreStep(t *testing.T) {
	t.Run("AddAnotherResetsInputs", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedMore
		model.nameInput.SetValue("old")
		model.urlInput.SetValue("https://old.example.com/feed")
		model.current.Name = "old"

		newModel, _ := model.Update(keyRune('y'))
		wm := newModel.(*wizardModel)
		if wm.step != stepFeedName {
			t.Errorf("expected stepFeedName, got %v", wm.step)
		}
		if wm.nameInput.Value() != "" || wm.urlInput.Value() != "" {
			t.Error("expected inputs cleared for the next feed")
		}
		if wm.current.Name != "" {
			t.Errorf("expected current feed reset, got %q", wm.current.Name)
		}
	})

	t.Run("ContinueToNotifier", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepFeedMore

		newModel, _ := model.Update(keyRune('n'))
		wm := newModel.(*wizardModel)
		if wm.step != stepNotifier {
			t.Errorf("expected stepNotifier, got %v", wm.step)
		}
	})
}

func TestWizardModel_NotifierStep(t *testing.T) {
	cases := []struct {
		key  rune
		want wizardStep
	}{
		{'p', stepPushToken},
		{'n', stepNtfyTopic},
		{'s', stepSummary},
	}
	for _, tc := range cases {
		model := newWizardModel(false)
		model.step = stepNotifier

		newModel, _ := model.Update(keyRune(tc.key))
		wm := newModel.(*wizardModel)
		if wm.step != tc.want {
			t.Errorf("key %q: expected step %v, got %v", tc.key, tc.want, wm.step)
		}
	}
}

func TestWizardModel_NotifierInputs(t *testing.T) {
	t.Run("EmptyTokenRejected", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepPushToken
		model.tokenInput.SetValue("")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepPushToken {
			t.Errorf("expected to stay on stepPushToken, got %v", wm.step)
		}
	})

	t.Run("TokenThenOptionalDevice", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepPushToken
		model.tokenInput.SetValue("o.token")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepPushDevice {
			t.Fatalf("expected stepPushDevice, got %v", wm.step)
		}

		wm.deviceInput.SetValue("")
		newModel, _ = wm.Update(keyEnter())
		wm = newModel.(*wizardModel)
		if wm.step != stepSummary {
			t.Errorf("expected stepSummary, got %v", wm.step)
		}
		if wm.pushToken != "o.token" || wm.pushDevice != "" {
			t.Errorf("unexpected pushbullet state %q/%q", wm.pushToken, wm.pushDevice)
		}
	})

	t.Run("BareNtfyTopicRejected", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepNtfyTopic
		model.topicInput.SetValue("my-topic")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepNtfyTopic {
			t.Errorf("expected to stay on stepNtfyTopic, got %v", wm.step)
		}
		if wm.errMsg == "" {
			t.Error("expected error message")
		}
	})

	t.Run("NtfyTopicURL", func(t *testing.T) {
		model := newWizardModel(false)
		model.step = stepNtfyTopic
		model.topicInput.SetValue("https://ntfy.sh/my-topic")

		newModel, _ := model.Update(keyEnter())
		wm := newModel.(*wizardModel)
		if wm.step != stepSummary {
			t.Errorf("expected stepSummary, got %v", wm.step)
		}
		if wm.ntfyTopic != "https://ntfy.sh/my-topic" {
			t.Errorf("expected topic URL kept, got %q", wm.ntfyTopic)
		}
	})
}

func TestWizardModel_SummaryStep(t *testing.T) {
	model := newWizardModel(false)
	model.step = stepSummary

	newModel, cmd := model.Update(keyEnter())
	if cmd == nil {
		t.Error("expected quit command")
	}
	wm := newModel.(*wizardModel)
	if wm.step != stepDone {
		t.Errorf("expected stepDone, got %v", wm.step)
	}
}

func TestValidHTTPURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"https://example.com/feed.xml", true},
		{"http://example.com/feed", true},
		{"https://example.com/feed?channel_id=abc", true},
		{"ftp://example.com/feed", false},
		{"example.com/feed", false},
		{"https://", false},
	}
	for _, test := range tests {
		if got := validHTTPURL(test.input); got != test.want {
			t.Errorf("validHTTPURL(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

// Integration test for complete flow
func TestWizardModel_CompleteFlow(t *testing.T) {
	model := newWizardModel(false)

	// Intro
	newModel, _ := model.Update(keyEnter())
	model = newModel.(*wizardModel)
	if model.step != stepFeedName {
		t.Fatalf("expected stepFeedName, got %v", model.step)
	}

	// Feed name
	model.nameInput.SetValue("myshow")
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)

	// Feed URL
	model.urlInput.SetValue("https://example.com/feed.xml")
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)

	// Output directory
	model.outputInput.SetValue("/tmp/myshow")
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)

	// Skip auth
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)

	// One whitelist pattern, then finish the feed
	model.whitelistInput.SetValue("Episode .*")
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)
	if model.step != stepFeedMore {
		t.Fatalf("expected stepFeedMore, got %v", model.step)
	}

	// No more feeds, pick ntfy
	newModel, _ = model.Update(keyRune('n'))
	model = newModel.(*wizardModel)
	newModel, _ = model.Update(keyRune('n'))
	model = newModel.(*wizardModel)
	model.topicInput.SetValue("https://ntfy.sh/my-topic")
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)
	if model.step != stepSummary {
		t.Fatalf("expected stepSummary, got %v", model.step)
	}

	// Finish
	newModel, _ = model.Update(keyEnter())
	model = newModel.(*wizardModel)
	if model.step != stepDone {
		t.Errorf("expected stepDone, got %v", model.step)
	}

	// Verify final state
	if len(model.feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(model.feeds))
	}
	f := model.feeds[0]
	if f.Name != "myshow" || f.URL != "https://example.com/feed.xml" || f.Output != "/tmp/myshow" {
		t.Errorf("unexpected feed %+v", f)
	}
	if len(f.Whitelist) != 1 || f.Whitelist[0] != "Episode .*" {
		t.Errorf("unexpected whitelist %v", f.Whitelist)
	}
	if model.ntfyTopic != "https://ntfy.sh/my-topic" {
		t.Errorf("expected ntfy topic, got %q", model.ntfyTopic)
	}
}
