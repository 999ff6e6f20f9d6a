package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App      AppConfig      `toml:"app"`
	Backend  BackendConfig  `toml:"backend"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// AppConfig contains client behavior switches.
type AppConfig struct {
	Name             string `toml:"name"`
	SocialRoute      string `toml:"social_route"`
	FullscreenChrome bool   `toml:"fullscreen_chrome"`
	EnforceRoles     bool   `toml:"enforce_roles"`
}

// BackendConfig contains the hosted backend endpoint and client options.
type BackendConfig struct {
	URL              string  `toml:"url"`
	AnonKey          string  `toml:"anon_key"`
	Schema           string  `toml:"schema"`
	PersistSession   bool    `toml:"persist_session"`
	AutoRefreshToken bool    `toml:"auto_refresh_token"`
	Mode             string  `toml:"mode"`
	DSN              string  `toml:"dsn"`
	Bucket           string  `toml:"bucket"`
	RateLimit        float64 `toml:"rate_limit"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout, defaulting to 15s.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains local database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults. ESPACO_ environment variables are applied last:
//
//	ESPACO_BACKEND_URL, ESPACO_BACKEND_ANON_KEY, ESPACO_BACKEND_SCHEMA,
//	ESPACO_BACKEND_MODE, ESPACO_BACKEND_DSN, ESPACO_DB_PATH,
//	ESPACO_SERVER_PORT, ESPACO_LOG_LEVEL
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(config)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports whether the backend section can be used to reach the hosted service.
// Placeholder values from the example file are rejected.
func (c *Config) Validate() error {
	b := c.Backend
	switch {
	case b.URL == "" || strings.Contains(b.URL, "your-project-id"):
		return fmt.Errorf("%w: backend.url is not set", ErrInvalidConfig)
	case b.AnonKey == "" || b.AnonKey == "your_anon_key":
		return fmt.Errorf("%w: backend.anon_key is not set", ErrMissingCredentials)
	case b.Schema == "":
		return fmt.Errorf("%w: backend.schema is required", ErrInvalidConfig)
	}

	switch b.Mode {
	case "", "rest":
	case "postgres":
		if b.DSN == "" {
			return fmt.Errorf("%w: backend.dsn is required in postgres mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend.mode %q", ErrInvalidConfig, b.Mode)
	}

	if !strings.HasPrefix(c.App.SocialRoute, "/") {
		return fmt.Errorf("%w: app.social_route must start with /", ErrInvalidConfig)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ESPACO_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("ESPACO_BACKEND_ANON_KEY"); v != "" {
		cfg.Backend.AnonKey = v
	}
	if v := os.Getenv("ESPACO_BACKEND_SCHEMA"); v != "" {
		cfg.Backend.Schema = v
	}
	if v := os.Getenv("ESPACO_BACKEND_MODE"); v != "" {
		cfg.Backend.Mode = v
	}
	if v := os.Getenv("ESPACO_BACKEND_DSN"); v != "" {
		cfg.Backend.DSN = v
	}
	if v := os.Getenv("ESPACO_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ESPACO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ESPACO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
