package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// autostart manages the per-user "start at login" entry.
type autostart struct {
	goos string
	home string
	exe  string
}

func newAutostart() (*autostart, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return &autostart{goos: runtime.GOOS, home: home, exe: exe}, nil
}

// Label is the menu text for this platform.
func (a *autostart) Label() string {
	if a.goos == "windows" {
		return "Start with Windows"
	}
	return "Start at Login"
}

func (a *autostart) path() string {
	switch a.goos {
	case "darwin":
		return filepath.Join(a.home, "Library", "LaunchAgents", "com.ccgauge.agent.plist")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(a.home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup", "ccgauge.cmd")
	default:
		dir := os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			dir = filepath.Join(a.home, ".config")
		}
		return filepath.Join(dir, "autostart", "ccgauge.desktop")
	}
}

// Enabled reports whether the login entry exists.
func (a *autostart) Enabled() bool {
	_, err := os.Stat(a.path())
	return err == nil
}

// Set creates or removes the login entry.
func (a *autostart) Set(enabled bool) error {
	p := a.path()
	if !enabled {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(a.entry()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func (a *autostart) entry() string {
	switch a.goos {
	case "darwin":
		return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.ccgauge.agent</string>
	<key>ProgramArguments</key>
	<array>
		<string>` + xmlEscape(a.exe) + `</string>
		<string>serve</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`
	case "windows":
		return "@echo off\r\nstart \"\" \"" + a.exe + "\" serve\r\n"
	default:
		return strings.Join([]string{
			"[Desktop Entry]",
			"Type=Application",
			"Name=CCGauge",
			"Comment=Claude usage in the tray",
			fmt.Sprintf("Exec=%q serve", a.exe),
			"X-GNOME-Autostart-enabled=true",
			"",
		}, "\n")
	}
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
