package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefs holds user preferences for the TUI that persist across sessions.
type Prefs struct {
	// HideSecrets controls whether values are redacted in the table.
	HideSecrets bool `json:"hide_secrets"`
	// ContextLines is the number of source lines shown around a finding.
	ContextLines int `json:"context_lines,omitempty"`
}

// DefaultPrefs returns the default preferences.
func DefaultPrefs() Prefs {
	return Prefs{
		HideSecrets:  true,
		ContextLines: 3,
	}
}

func prefsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".securelog", "tui_prefs.json"), nil
}

// LoadPrefs loads user preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()

	path, err := prefsPath()
	if err != nil {
		return prefs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}

	_ = json.Unmarshal(data, &prefs) //nolint:errcheck // fall back to defaults
	if prefs.ContextLines < 1 {
		prefs.ContextLines = DefaultPrefs().ContextLines
	}
	return prefs
}

// SavePrefs persists user preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// redactSecret shows the first six characters of s. Shorter values are fully
// redacted.
func redactSecret(s string) string {
	r := []rune(s)
	if len(r) <= 6 {
		return "..."
	}
	return string(r[:6]) + "..."
}
