// Package config provides Viper-based configuration loading for the world
// generator.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceConfig selects where raw map documents are retrieved from.
type SourceConfig struct {
	// BaseURL is the HTTP root of the source repository. Used when Dir is empty.
	BaseURL string `mapstructure:"base_url"`
	// Dir is a local checkout of the source repository. Takes precedence over BaseURL.
	Dir string `mapstructure:"dir"`
	// RequestsPerSecond throttles HTTP retrieval. Zero disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Burst is the token bucket size for HTTP retrieval.
	Burst int `mapstructure:"burst"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SnapshotConfig holds raw-record snapshot settings.
type SnapshotConfig struct {
	// Path is the snapshot file location.
	Path string `mapstructure:"path"`
}

// MappingsConfig holds the name dictionary location.
type MappingsConfig struct {
	// Path is the mappings YAML file. A missing file means empty dictionaries.
	Path string `mapstructure:"path"`
}

// AssemblyConfig holds graph assembly settings.
type AssemblyConfig struct {
	// Workers bounds the number of records resolved concurrently.
	Workers int `mapstructure:"workers"`
}

// OutputConfig holds graph output settings.
type OutputConfig struct {
	// Dir receives one YAML file per map plus manifest.yaml.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File is an optional path for a rotated JSON log file.
	File string `mapstructure:"file"`
	// MaxSizeMB is the rotation threshold for File.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
}

// Config is the top-level application configuration.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Mappings MappingsConfig `mapstructure:"mappings"`
	Assembly AssemblyConfig `mapstructure:"assembly"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateSource(c.Source); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Snapshot.Path == "" {
		errs = append(errs, "snapshot.path must not be empty")
	}
	if c.Assembly.Workers < 1 {
		errs = append(errs, fmt.Sprintf("assembly.workers must be >= 1, got %d", c.Assembly.Workers))
	}
	if c.Output.Dir == "" {
		errs = append(errs, "output.dir must not be empty")
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSource(s SourceConfig) error {
	var errs []string
	if s.Dir == "" {
		if s.BaseURL == "" {
			errs = append(errs, "one of source.dir or source.base_url must be set")
		} else if u, err := url.Parse(s.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("source.base_url must be an http(s) URL, got %q", s.BaseURL))
		}
	}
	if s.RequestsPerSecond < 0 {
		errs = append(errs, "source.requests_per_second must not be negative")
	}
	if s.RequestsPerSecond > 0 && s.Burst < 1 {
		errs = append(errs, fmt.Sprintf("source.burst must be >= 1 when throttling, got %d", s.Burst))
	}
	if s.Timeout < 0 {
		errs = append(errs, "source.timeout must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		return fmt.Errorf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with WORLDGEN_ prefix
	v.SetEnvPrefix("WORLDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://raw.githubusercontent.com/pret/pokefirered/master")
	v.SetDefault("source.dir", "")
	v.SetDefault("source.requests_per_second", 20.0)
	v.SetDefault("source.burst", 5)
	v.SetDefault("source.timeout", "30s")

	v.SetDefault("snapshot.path", "parsed.bin")
	v.SetDefault("mappings.path", "configs/mappings.yaml")
	v.SetDefault("assembly.workers", 8)
	v.SetDefault("output.dir", "maps")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
}
