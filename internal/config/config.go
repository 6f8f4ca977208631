// Package config loads settings from flags, a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks environment variables read as configuration, e.g. LEITNER_DB.
const EnvPrefix = "LEITNER_"

// Config holds the runtime settings.
type Config struct {
	DB       string `koanf:"db" validate:"required"`
	Key      string `koanf:"key" validate:"required"`
	Addr     string `koanf:"addr" validate:"required,hostname_port"`
	LogLevel string `koanf:"log-level" validate:"oneof=debug info warn error"`
	Repos    string `koanf:"repos" validate:"required"`
	Seed     bool   `koanf:"seed"`
}

// RegisterFlags adds the configuration flags and their defaults to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "leitner.yaml", "Path to an optional YAML config file")
	flags.String("db", "leitner.db", "Path to the SQLite database file")
	flags.String("key", "leitner_v1", "Storage key the deck is saved under")
	flags.String("addr", "127.0.0.1:8080", "Listen address for the HTTP API")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("repos", "repos", "Directory for git checkouts of imported decks")
	flags.Bool("seed", true, "Seed demo cards when the deck is empty on first launch")
}

// Load merges, lowest priority first: flag defaults, the YAML file, .env and
// LEITNER_* variables, then flags set on the command line.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) || flags.Changed("config") {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env file", "error", err)
	}
	envKey := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
