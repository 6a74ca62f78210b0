package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Editor.CaptureRadius)
	assert.Equal(t, 500, cfg.Editor.HistorySize)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "graphs", cfg.Store.Dir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "nodegraph", cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
editor:
  capture_radius: 6
store:
  backend: postgres
  database_url: postgres://localhost/graphs
log:
  level: debug
  format: json
`), 0o644))
	t.Setenv("NODEGRAPH_SERVER_ADDR", ":9999")
	t.Setenv("NODEGRAPH_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Editor.CaptureRadius)
	assert.Equal(t, 500, cfg.Editor.HistorySize, "unset keys keep defaults")
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/graphs", cfg.Store.DatabaseURL)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level, "environment overrides the file")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Editor:  EditorConfig{CaptureRadius: 10, HistorySize: 50},
			Store:   StoreConfig{Backend: "file", Dir: "graphs"},
			Tracing: TracingConfig{SampleRate: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero radius", func(c *Config) { c.Editor.CaptureRadius = 0 }, "capture_radius"},
		{"negative history", func(c *Config) { c.Editor.HistorySize = -1 }, "history_size"},
		{"file without dir", func(c *Config) { c.Store.Dir = "" }, "dir is empty"},
		{"postgres without url", func(c *Config) { c.Store.Backend = "postgres" }, "database_url"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "unknown store backend"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"bad sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			warnings := cfg.Validate()
			if !hasWarning(warnings, tt.want) {
				t.Errorf("expected warning containing %q, got %v", tt.want, warnings)
			}
		})
	}

	if w := base().Validate(); len(w) != 0 {
		t.Errorf("valid config should have no warnings, got %v", w)
	}
}
