package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/novachat/novachat/internal/file"
)

var defaultConfig = Config{
	APIHost:        "https://api.novachat.app",
	APIToken:       "API_TOKEN",
	UserID:         "",
	Plan:           "free",
	RequestTimeout: 60,
	Database:       "~/.config/novachat/novachat.db",

	Chat: &ChatConfig{
		DefaultAgent: "",
	},
}

// Config holds configuration for the novachat tool.
type Config struct {
	// Base URL of the NovaChat API.
	APIHost string `json:"api_host"`
	// Bearer token issued at login.
	APIToken string `json:"api_token"`
	// ID of the signed-in user.
	UserID string `json:"user_id"`
	// Plan tier: "free" or "pro". Drives upsell behavior.
	Plan string `json:"plan"`
	// Request timeout in seconds.
	RequestTimeout int `json:"request_timeout"`
	// Path of the local chat history database.
	Database string `json:"database"`

	Chat *ChatConfig `json:"chat"`
}

// ChatConfig holds configuration for novachat chat.
type ChatConfig struct {
	// The agent used when none is specified on the command line.
	DefaultAgent string `json:"default_agent"`
}

// FreeTier returns true unless the configured plan is a paid one.
func (c *Config) FreeTier() bool {
	return c.Plan != "pro"
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if config.Chat == nil {
		config.Chat = &ChatConfig{}
	}

	expandedDatabasePath, err := file.ExpandPath(config.Database)
	if err != nil {
		return nil, errors.Wrap(err, "expanding database path")
	}
	config.Database = expandedDatabasePath
	return config, nil
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	// Create the directories.
	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := defaultConfig.save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
