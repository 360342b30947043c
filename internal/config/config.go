// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

// Package config loads extension settings from a YAML file and command-line flags.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values.
const (
	DefaultPluginName = "csstats-extension"
	DefaultLogFormat  = "text"
	DefaultLogLevel   = "info"
)

// Config keys, shared by the YAML file and the flag names.
const (
	KeyPluginName     = "plugin-name"
	KeyLoggingEnabled = "logging-enabled"
	KeyLogFormat      = "log-format"
	KeyLogLevel       = "log-level"
	KeyMetricsAddr    = "metrics-addr"
)

// Config holds the extension settings.
type Config struct {
	// PluginName is the source tag on every log record.
	PluginName string `koanf:"plugin-name" validate:"required,max=64"`
	// LoggingEnabled routes lifecycle transitions and faults through the
	// diagnostic logger. When false the plugin emits nothing.
	LoggingEnabled bool   `koanf:"logging-enabled"`
	LogFormat      string `koanf:"log-format" validate:"oneof=json text"`
	LogLevel       string `koanf:"log-level" validate:"oneof=debug info warn error"`
	// MetricsAddr is the observability listen address; empty disables it.
	MetricsAddr string `koanf:"metrics-addr" validate:"omitempty,hostname_port"`
}

// RegisterFlags adds the config flags and their defaults to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyPluginName, DefaultPluginName, "source tag attached to every log record")
	flags.Bool(KeyLoggingEnabled, true, "emit lifecycle log records (false keeps the host console silent)")
	flags.String(KeyLogFormat, DefaultLogFormat, "log format (json or text)")
	flags.String(KeyLogLevel, DefaultLogLevel, "minimum log level (debug, info, warn, error)")
	flags.String(KeyMetricsAddr, "", "metrics/health HTTP address (empty = disabled)")
}

// Load reads path (if set) and then flags. Changed flags override
// the file; unchanged flags only fill keys the file left out. A missing file
// is an error only when required is true.
func Load(path string, required bool, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, oops.Code("CONFIG_READ_FAILED").In("config").With("path", path).Wrap(err)
			}
		} else if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").In("config").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").In("config").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").In("config").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return oops.Code("CONFIG_INVALID").In("config").Wrapf(err, "invalid configuration")
	}
	return nil
}
