// Package config loads the CLI settings from an optional YAML file and
// FORMDRAFT_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/entity"
)

// Environment variables read by Load.
const (
	EnvBaseURL     = "FORMDRAFT_BASE_URL"
	EnvTimeout     = "FORMDRAFT_TIMEOUT"
	EnvPreviewDir  = "FORMDRAFT_PREVIEW_DIR"
	EnvContract    = "FORMDRAFT_CONTRACT"
	EnvLogLevel    = "FORMDRAFT_LOG_LEVEL"
	EnvMetricsAddr = "FORMDRAFT_METRICS_ADDR"
)

// Attachment configures the profile image handler.
type Attachment struct {
	MaxSize    int64  `yaml:"max_size"`
	PreviewDir string `yaml:"preview_dir"`
}

// Theme selects the terminal theme.
type Theme struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
}

// Config is the resolved CLI configuration.
type Config struct {
	BaseURL     string            `yaml:"base_url"`
	Timeout     time.Duration     `yaml:"timeout"`
	Headers     map[string]string `yaml:"headers"`
	Endpoints   map[string]string `yaml:"endpoints"`
	Attachment  Attachment        `yaml:"attachment"`
	Contract    string            `yaml:"contract"`
	Overlay     string            `yaml:"overlay"`
	Theme       Theme             `yaml:"theme"`
	LogLevel    string            `yaml:"log_level"`
	MetricsAddr string            `yaml:"metrics_addr"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BaseURL:    "http://localhost:8080",
		Timeout:    30 * time.Second,
		Attachment: Attachment{MaxSize: attachment.MaxSize},
		LogLevel:   "info",
	}
}

// Load reads path when it is not empty, then applies the environment.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvBaseURL, &c.BaseURL)
	str(EnvPreviewDir, &c.Attachment.PreviewDir)
	str(EnvContract, &c.Contract)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvMetricsAddr, &c.MetricsAddr)

	if v, ok := lookup(EnvTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := parseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate rejects settings the CLI cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.Attachment.MaxSize < 0 {
		errs = append(errs, errors.New("attachment.max_size must not be negative"))
	}
	for key := range c.Endpoints {
		if _, err := entity.ParseKind(key); err != nil {
			errs = append(errs, fmt.Errorf("endpoints: %w", err))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Endpoint returns the configured path for kind, empty when unset.
func (c Config) Endpoint(kind entity.Kind) string {
	return c.Endpoints[string(kind)]
}

// Level maps LogLevel onto a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
