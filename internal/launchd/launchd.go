package launchd

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DefaultLabel is the launchd agent label for the periodic run job.
const DefaultLabel = "com.podcatch.run"

// Options configure the launchd agent that runs podcatch periodically.
type Options struct {
	Label           string
	IntervalMinutes int
	ProgramPath     string   // absolute path to this binary
	ProgramArgs     []string // args after ProgramPath
	LogPath         string   // stdout and stderr both go here
	PlistPath       string   // optional custom plist path
}

func DefaultAgentPath(label string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", label+".plist"), nil
}

// BuildPlist constructs a minimal plist for StartInterval execution.
// The job runs to completion each interval, so KeepAlive is deliberately
// absent: launchd must not respawn it between runs.
func BuildPlist(opt Options) ([]byte, error) {
	if opt.Label == "" {
		return nil, errors.New("label required")
	}
	if opt.ProgramPath == "" {
		return nil, errors.New("program path required")
	}
	if opt.IntervalMinutes <= 0 {
		opt.IntervalMinutes = 60
	}
	if opt.LogPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opt.LogPath = filepath.Join(home, "Library", "Logs", "Podcatch", "run.launchd.log")
		}
	}

	// Ensure log directory exists
	if opt.LogPath != "" {
		_ = os.MkdirAll(filepath.Dir(opt.LogPath), 0o755)
	}

	// Manually render a valid launchd plist with proper key/value tags
	escape := func(s string) string {
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(s))
		return b.String()
	}
	args := []string{opt.ProgramPath}
	args = append(args, opt.ProgramArgs...)
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE plist PUBLIC \"-//Apple//DTD PLIST 1.0//EN\" \"http://www.apple.com/DTDs/PropertyList-1.0.dtd\">\n")
	buf.WriteString("<plist version=\"1.0\">\n  <dict>\n")
	// Label
	buf.WriteString("    <key>Label</key>\n    <string>")
	buf.WriteString(escape(opt.Label))
	buf.WriteString("</string>\n")
	// ProgramArguments
	buf.WriteString("    <key>ProgramArguments</key>\n    <array>\n")
	for _, a := range args {
		buf.WriteString("      <string>")
		buf.WriteString(escape(a))
		buf.WriteString("</string>\n")
	}
	buf.WriteString("    </array>\n")
	// StartInterval (seconds)
	buf.WriteString("    <key>StartInterval</key>\n    <integer>")
	buf.WriteString(strconv.Itoa(opt.IntervalMinutes * 60))
	buf.WriteString("</integer>\n")
	// Run once immediately after loading, then on the interval
	buf.WriteString("    <key>RunAtLoad</key>\n    <true/>\n")
	// Logs
	if opt.LogPath != "" {
		buf.WriteString("    <key>StandardOutPath</key>\n    <string>")
		buf.WriteString(escape(opt.LogPath))
		buf.WriteString("</string>\n")
		buf.WriteString("    <key>StandardErrorPath</key>\n    <string>")
		buf.WriteString(escape(opt.LogPath))
		buf.WriteString("</string>\n")
	}
	buf.WriteString("  </dict>\n</plist>\n")
	return buf.Bytes(), nil
}

// Install writes the plist and loads it via launchctl.
func Install(opt Options) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", errors.New("launchd is only available on macOS")
	}
	plistPath := opt.PlistPath
	if strings.TrimSpace(plistPath) == "" {
		var err error
		plistPath, err = DefaultAgentPath(opt.Label)
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(plistPath), 0o755); err != nil {
		return "", err
	}
	data, err := BuildPlist(opt)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(plistPath, data, 0o644); err != nil {
		return "", err
	}

	lctl := launchctlPath()
	if lctl == "" {
		return plistPath, errors.New("launchctl not found in /bin, /usr/bin, or PATH")
	}

	// Prefer modern bootstrap/enable under user GUI domain
	uid := os.Getuid()
	domain := fmt.Sprintf("gui/%d", uid)
	if err := exec.Command(lctl, "bootstrap", domain, plistPath).Run(); err != nil {
		// Fallback to legacy load -w
		if err2 := exec.Command(lctl, "load", "-w", plistPath).Run(); err2 != nil {
			return plistPath, fmt.Errorf("launchctl bootstrap/load failed: %v / %v", err, err2)
		}
	} else {
		_ = exec.Command(lctl, "enable", domain+"/"+opt.Label).Run()
	}
	return plistPath, nil
}

// Uninstall unloads and removes the plist.
func Uninstall(label string, plistPath string) error {
	if runtime.GOOS != "darwin" {
		return errors.New("launchd is only available on macOS")
	}
	if strings.TrimSpace(plistPath) == "" {
		var err error
		plistPath, err = DefaultAgentPath(label)
		if err != nil {
			return err
		}
	}
	// Prefer modern bootout, fallback to unload
	uid := os.Getuid()
	domain := fmt.Sprintf("gui/%d", uid)
	lctl := launchctlPath()
	if lctl == "" {
		return errors.New("launchctl not found")
	}
	if err := exec.Command(lctl, "bootout", domain, plistPath).Run(); err != nil {
		_ = exec.Command(lctl, "unload", "-w", plistPath).Run()
	}
	if err := os.Remove(plistPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Status returns whether the agent is loaded and a short human string.
func Status(label string) (bool, string) {
	if runtime.GOOS != "darwin" || strings.TrimSpace(label) == "" {
		return false, "unsupported"
	}
	uid := os.Getuid()
	domain := fmt.Sprintf("gui/%d", uid)
	lctl := launchctlPath()
	if lctl == "" {
		return false, "launchctl not found"
	}
	out, err := exec.Command(lctl, "print", domain+"/"+label).CombinedOutput()
	if err != nil {
		return false, "not loaded"
	}
	lines := strings.Split(string(out), "\n")
	state := "loaded"
	for _, ln := range lines {
		if strings.Contains(ln, "state = ") {
			state = strings.TrimSpace(ln)
			break
		}
	}
	return true, state
}

// launchctlPath attempts to find the absolute path to launchctl.
func launchctlPath() string {
	candidates := []string{"/bin/launchctl", "/usr/bin/launchctl"}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	if p, err := exec.LookPath("launchctl"); err == nil {
		return p
	}
	return ""
}

// StartInterval best-effort parses the StartInterval seconds from a plist file.
func StartInterval(plistPath string) (int, error) {
	b, err := os.ReadFile(plistPath)
	if err != nil {
		return 0, err
	}
	s := string(b)
	i := strings.Index(s, "<key>StartInterval</key>")
	if i < 0 {
		return 0, errors.New("StartInterval not found")
	}
	sub := s[i:]
	open := strings.Index(sub, "<integer>")
	end := strings.Index(sub, "</integer>")
	if open < 0 || end < 0 || end <= open+len("<integer>") {
		return 0, errors.New("invalid integer tag")
	}
	val := strings.TrimSpace(sub[open+len("<integer>") : end])
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return n, nil
}
