// Package config loads the YAML configuration and opens the configured
// storage backend.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendPostGIS = "postgis"
	BackendRedis   = "redis"
)

// Default file names, tried in order when no path is given
const (
	DefaultPath  = "config.yaml"
	ExamplePath  = "config.yaml.example"
	BuiltinLabel = "defaults"
)

// ErrUnknownBackend is returned for an unsupported storage backend
var ErrUnknownBackend = errors.New("unknown storage backend")

// Config structure for YAML configuration
type Config struct {
	Storage struct {
		Backend string `yaml:"backend"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"storage"`
	PostGIS struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		Database       string `yaml:"database"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"postgis"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Key      string `yaml:"key"`
	} `yaml:"redis"`
	Routing struct {
		// Seed fixes waypoint jitter; 0 seeds from the clock
		Seed int64 `yaml:"seed"`
	} `yaml:"routing"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Source is the file the config was read from
	Source string `yaml:"-"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{Source: BuiltinLabel}
	cfg.Storage.Backend = BackendFile
	cfg.Storage.DataDir = "data"
	cfg.PostGIS.Host = "localhost"
	cfg.PostGIS.Port = 5432
	cfg.PostGIS.User = "postgres"
	cfg.PostGIS.Database = "caminasegura"
	cfg.PostGIS.MaxConnections = 25
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Key = "caminasegura"
	cfg.Server.Addr = ":8080"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the config at path. With an empty path it tries config.yaml,
// then config.yaml.example, and falls back to the defaults when neither
// exists. Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	candidates := []string{DefaultPath, ExamplePath}
	if path != "" {
		candidates = []string{path}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, os.ErrNotExist) && path == "" {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		cfg.Source = candidate
		break
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend and log level
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendPostGIS, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// NewLogger builds the application logger at the configured level
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
