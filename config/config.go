// Package config loads nodegraph settings from an optional YAML file and
// NODEGRAPH_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Editor    EditorConfig    `mapstructure:"editor"`
	Store     StoreConfig     `mapstructure:"store"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type EditorConfig struct {
	// CaptureRadius is how close, in screen units, a released wire must be
	// to a port to connect.
	CaptureRadius float64 `mapstructure:"capture_radius"`
	HistorySize   int     `mapstructure:"history_size"`
}

type StoreConfig struct {
	// Backend is "file" or "postgres".
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	DatabaseURL string `mapstructure:"database_url"`
}

type TemplatesConfig struct {
	// Path is an .hcl file or a directory of them, loaded on top of the
	// builtin catalog.
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("editor.capture_radius", 10.0)
	v.SetDefault("editor.history_size", 500)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", "graphs")
	v.SetDefault("store.database_url", "")
	v.SetDefault("templates.path", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "nodegraph")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Editor.CaptureRadius <= 0 {
		warnings = append(warnings, fmt.Sprintf("editor capture_radius %.1f is not positive; wires will never connect", c.Editor.CaptureRadius))
	}
	if c.Editor.HistorySize < 0 {
		warnings = append(warnings, fmt.Sprintf("editor history_size %d is negative", c.Editor.HistorySize))
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.Dir == "" {
			warnings = append(warnings, "store backend 'file' is configured but dir is empty")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			warnings = append(warnings, "store backend 'postgres' is configured but database_url is empty")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown store backend '%s'", c.Store.Backend))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log level '%s', using info", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log format '%s', using text", c.Log.Format))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// Load reads configuration from file and environment. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NODEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
