// Package config loads the optional YAML config file. Every key has a
// default, so a missing file is not an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/utils"
)

type Notifications struct {
	Enabled        bool   `yaml:"enabled"`
	Sink           string `yaml:"sink"`
	TelegramChatID int64  `yaml:"telegram_chat_id,omitempty"`
}

type Config struct {
	Store         string        `yaml:"store"`
	Timezone      string        `yaml:"timezone"`
	Debug         bool          `yaml:"debug"`
	Notifications Notifications `yaml:"notifications"`
}

// Sinks accepted by notifications.sink.
var Sinks = []string{"tray", "telegram", "stdout"}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Store:    filepath.Join(constants.DefaultConfigDir, constants.DefaultStoreFileName),
		Timezone: constants.DefaultTimezone,
		Notifications: Notifications{
			Enabled: true,
			Sink:    constants.DefaultNotificationSink,
		},
	}
}

// DefaultPath is ~/.config/habitflow/config.yaml, expanded.
func DefaultPath() string {
	p, err := ExpandPath(filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigFile))
	if err != nil {
		return filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigFile)
	}
	return p
}

// Load reads path over the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	cfg := Default()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", expanded, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", expanded, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store) == "" {
		return fmt.Errorf("store must not be empty")
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("unknown timezone %q", c.Timezone)
	}
	known := false
	for _, s := range Sinks {
		if c.Notifications.Sink == s {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown notification sink %q (expected one of %s)", c.Notifications.Sink, strings.Join(Sinks, ", "))
	}
	if c.Notifications.Enabled && c.Notifications.Sink == "telegram" && c.Notifications.TelegramChatID == 0 {
		return fmt.Errorf("notifications.telegram_chat_id is required for the telegram sink")
	}
	return nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := "# habitflow configuration\n# store: .db (sqlite) | .json (file) | badger:<dir> | postgres://...\n"
	return os.WriteFile(expanded, append([]byte(header), data...), 0o644)
}

// StorePath returns the store value with ~ expanded. Connection strings
// and badger: values are returned unchanged apart from the expansion of
// the badger directory.
func (c *Config) StorePath() (string, error) {
	switch {
	case strings.HasPrefix(c.Store, "postgres://"), strings.HasPrefix(c.Store, "postgresql://"):
		return c.Store, nil
	case strings.HasPrefix(c.Store, "badger:"):
		dir := strings.TrimPrefix(c.Store, "badger:")
		if dir == "" {
			return c.Store, nil
		}
		expanded, err := ExpandPath(dir)
		if err != nil {
			return "", err
		}
		return "badger:" + expanded, nil
	default:
		return ExpandPath(c.Store)
	}
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
