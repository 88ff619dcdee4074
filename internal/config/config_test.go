package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Timezone != "Local" || !cfg.Notifications.Enabled || cfg.Notifications.Sink != "tray" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.Store, "habitflow.db") {
		t.Errorf("unexpected default store %q", cfg.Store)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `store: /tmp/habits.json
timezone: Europe/Berlin
notifications:
  sink: stdout
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store != "/tmp/habits.json" || cfg.Timezone != "Europe/Berlin" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Notifications.Sink != "stdout" || !cfg.Notifications.Enabled {
		t.Errorf("expected sink override with enabled default kept, got %+v", cfg.Notifications)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("empty file should load defaults, got %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "stor: x.db\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"bad sink", "notifications:\n  sink: pager\n"},
		{"telegram without chat", "notifications:\n  sink: telegram\n"},
		{"empty store", "store: \"\"\n"},
		{"not yaml", "store: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %q", tt.content)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Store = "badger:/var/lib/habitflow"
	cfg.Notifications.Sink = "telegram"
	cfg.Notifications.TelegramChatID = 42

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
}

func TestStorePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		store string
		want  string
	}{
		{"~/habits.db", filepath.Join(home, "habits.db")},
		{"/abs/habits.json", "/abs/habits.json"},
		{"badger:~/hf", "badger:" + filepath.Join(home, "hf")},
		{"postgres://u@h/db", "postgres://u@h/db"},
	}
	for _, tt := range tests {
		cfg := &Config{Store: tt.store}
		got, err := cfg.StorePath()
		if err != nil {
			t.Fatalf("StorePath(%q) error = %v", tt.store, err)
		}
		if got != tt.want {
			t.Errorf("StorePath(%q) = %q, want %q", tt.store, got, tt.want)
		}
	}
}
