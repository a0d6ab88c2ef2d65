package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "long secret shows first 6 chars",
			input:  "sk_live_0123456789abcdef",
			expect: "sk_liv...",
		},
		{
			name:   "exactly 7 chars shows first 6",
			input:  "1234567",
			expect: "123456...",
		},
		{
			name:   "6 chars or less fully redacted",
			input:  "123456",
			expect: "...",
		},
		{
			name:   "empty string",
			input:  "",
			expect: "...",
		},
		{
			name:   "multibyte prefix kept whole",
			input:  "ключ_секрет_123",
			expect: "ключ_с...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactSecret(tt.input)
			if got != tt.expect {
				t.Errorf("redactSecret(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestDefaultPrefs(t *testing.T) {
	prefs := DefaultPrefs()
	if !prefs.HideSecrets {
		t.Error("DefaultPrefs().HideSecrets should be true")
	}
	if prefs.ContextLines != 3 {
		t.Errorf("DefaultPrefs().ContextLines = %d, want 3", prefs.ContextLines)
	}
}

func TestLoadPrefs_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	prefs := LoadPrefs()
	if !prefs.HideSecrets {
		t.Error("LoadPrefs() with no file should return defaults (HideSecrets=true)")
	}
}

func TestSaveAndLoadPrefs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := SavePrefs(Prefs{HideSecrets: false, ContextLines: 7}); err != nil {
		t.Fatalf("SavePrefs failed: %v", err)
	}

	prefsFile := filepath.Join(tmpDir, ".securelog", "tui_prefs.json")
	if _, err := os.Stat(prefsFile); os.IsNotExist(err) {
		t.Fatal("prefs file was not created")
	}

	loaded := LoadPrefs()
	if loaded.HideSecrets {
		t.Error("Loaded prefs should have HideSecrets=false")
	}
	if loaded.ContextLines != 7 {
		t.Errorf("Loaded prefs ContextLines = %d, want 7", loaded.ContextLines)
	}
}
