package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds start-up options. Runtime settings derived from it are never
// written back.
type Config struct {
	PollInterval     time.Duration       `yaml:"poll_interval"`
	CredentialsPath  string              `yaml:"credentials_path,omitempty"`
	WatchCredentials *bool               `yaml:"watch_credentials,omitempty"`
	API              APIConfig           `yaml:"api"`
	Notifications    NotificationsConfig `yaml:"notifications"`
	IPC              IPCConfig           `yaml:"ipc"`
	Log              LogConfig           `yaml:"log"`
	Tray             TrayConfig          `yaml:"tray"`
	MQTT             MQTTConfig          `yaml:"mqtt,omitempty"`
}

type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

type NotificationsConfig struct {
	Enabled   *bool `yaml:"enabled,omitempty"`
	Threshold int   `yaml:"threshold"`
}

type IPCConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`
}

type TrayConfig struct {
	Enabled     *bool    `yaml:"enabled,omitempty"`
	ShowCommand []string `yaml:"show_command,omitempty"` // e.g. ["kitty", "-e", "ccgauge", "panel"]
}

// MQTTConfig enables publishing every reading to a broker.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

const defaultIPCAddr = "127.0.0.1:47615"

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	cfg := Config{
		Notifications: NotificationsConfig{Threshold: DefaultSettings().NotificationThreshold},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values. The notification threshold is left alone
// since 0 is a valid setting; it is defaulted by DefaultConfig.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
	if c.Notifications.Enabled == nil {
		c.Notifications.Enabled = boolPtr(true)
	}
	if c.IPC.Addr == "" {
		c.IPC.Addr = defaultIPCAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Tray.Enabled == nil {
		c.Tray.Enabled = boolPtr(true)
	}
	if c.WatchCredentials == nil {
		c.WatchCredentials = boolPtr(true)
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "ccgauge"
	}
	if c.MQTT.Enabled && c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "ccgauge"
	}
}

// Validate checks ranges after defaults are applied.
func (c Config) Validate() error {
	if c.Notifications.Threshold < 0 || c.Notifications.Threshold > 100 {
		return fmt.Errorf("notifications.threshold must be between 0 and 100, got %d", c.Notifications.Threshold)
	}
	if c.PollInterval < 10*time.Second {
		return fmt.Errorf("poll_interval must be at least 10s, got %s", c.PollInterval)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

// Settings returns the initial in-memory settings.
func (c Config) Settings() Settings {
	return Settings{
		NotificationsEnabled:  c.Notifications.Enabled == nil || *c.Notifications.Enabled,
		NotificationThreshold: c.Notifications.Threshold,
	}
}

// configDir returns the configuration directory.
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "ccgauge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ccgauge")
}

// defaultConfigPath returns the full path to the config file.
func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// LoadConfig loads the configuration from path, or returns defaults if not found.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	if path == "" {
		path = defaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func boolPtr(b bool) *bool { return &b }
