package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig locates the backing database. Key is the access secret and is
// used as the connection password.
type StoreConfig struct {
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	Driver string `yaml:"driver"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func defaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "postgres"},
		Server: ServerConfig{
			Addr:            ":3001",
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads an optional .env file, then the YAML file at path (if path is
// not empty), then the environment, which wins over both. It fails when the
// store endpoint or access key is missing.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv("STORE_URL"); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv("STORE_KEY"); v != "" {
		cfg.Store.Key = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if v := os.Getenv("SERVER_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SERVER_REQUEST_TIMEOUT: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_DEVELOPMENT: %w", err)
		}
		cfg.Log.Development = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Store.URL == "" {
		return errors.New("store endpoint must be set (STORE_URL)")
	}
	if c.Store.Key == "" {
		return errors.New("store access key must be set (STORE_KEY)")
	}
	switch c.Store.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

// DSN returns the connection string for the configured driver with the
// access key applied as password. sqlite has no credentials, so its URL is
// used as is.
func (s StoreConfig) DSN() (string, error) {
	if s.Driver == "sqlite3" {
		return s.URL, nil
	}
	if !strings.Contains(s.URL, "://") {
		// key=value form
		return s.URL + " password=" + quoteDSNValue(s.Key), nil
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", fmt.Errorf("parse store url: %w", err)
	}
	username := "postgres"
	if u.User != nil && u.User.Username() != "" {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, s.Key)
	return u.String(), nil
}

func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
