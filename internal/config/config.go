package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitual/internal/constants"
)

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Remote   RemoteConfig   `yaml:"remote"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the local SQLite replica.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig points the sync client at a habitual server. An empty URL
// disables sync; changes then only accumulate in the offline queue.
type RemoteConfig struct {
	URL      string   `yaml:"url"`
	Timeout  Duration `yaml:"timeout"`
	APIToken string   `yaml:"-"` // env or keyring only, never in YAML
}

// ServerConfig configures `habitual serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Backend is a SQLite file path, a postgres:// connection string, or
	// "keyring" to read the connection string from the OS keyring.
	Backend string `yaml:"backend"`
	APIKey  string `yaml:"-"` // env or keyring only
}

type LogConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads configuration with precedence: defaults → YAML file → env vars.
// path may be empty, in which case HABITUAL_CONFIG_PATH or the default
// location is used. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("HABITUAL_CONFIG_PATH", filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigFile))
	}
	path = ExpandHome(path)

	cfg := newDefaults()
	if err := loadYAMLFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(cfg *Config, path string) error {
	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Dir is the directory holding the database, logs and backups.
func (c *Config) Dir() string {
	return filepath.Dir(c.Database.Path)
}

func newDefaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(constants.DefaultConfigDir, constants.DefaultDBFile),
		},
		Remote: RemoteConfig{
			Timeout: Duration(constants.DefaultRemoteTimeout),
		},
		Server: ServerConfig{
			Addr:    constants.DefaultServerAddr,
			Backend: filepath.Join(constants.DefaultConfigDir, "server.db"),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HABITUAL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HABITUAL_REMOTE_URL"); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv("HABITUAL_REMOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Remote.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("HABITUAL_API_TOKEN"); v != "" {
		cfg.Remote.APIToken = v
	}
	if v := os.Getenv("HABITUAL_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HABITUAL_SERVER_BACKEND"); v != "" {
		cfg.Server.Backend = v
	}
	if v := os.Getenv("HABITUAL_SERVER_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("HABITUAL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HABITUAL_DEBUG"); v != "" {
		cfg.Log.Debug = v == "true" || v == "1"
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("remote.timeout must be positive")
	}
	if c.Remote.URL != "" && !strings.HasPrefix(c.Remote.URL, "http://") && !strings.HasPrefix(c.Remote.URL, "https://") {
		return fmt.Errorf("remote.url must be an http(s) URL, got %q", c.Remote.URL)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
