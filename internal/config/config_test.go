package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "resources", cfg.Resources.Dir)
	assert.Equal(t, "decision-app", cfg.Resources.DeploymentName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.History.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, []string{AppCarrier, AppDinner}, cfg.Applications.Enabled)
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: ":9090"
  shutdown_timeout: 3s
resources:
  dir: ./decisions
logging:
  level: debug
  format: json
history:
  enabled: true
  dsn: "file::memory:"
metrics:
  enabled: false
applications:
  enabled: [dinner]
  variables:
    dinner:
      season: Winter
      guestCount: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddress)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./decisions", cfg.Resources.Dir)
	assert.Equal(t, "decision-app", cfg.Resources.DeploymentName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "file::memory:", cfg.History.DSN)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Applications.IsEnabled(AppDinner))
	assert.False(t, cfg.Applications.IsEnabled(AppCarrier))

	patch, err := cfg.VariablePatch(AppDinner)
	require.NoError(t, err)
	assert.JSONEq(t, `{"season":"Winter","guestCount":4}`, string(patch))

	patch, err = cfg.VariablePatch(AppCarrier)
	require.NoError(t, err)
	assert.Nil(t, patch)
}

func TestLoadConfig_MetricsDefaultOn(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "logging:\n  level: warn\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read configuration file")

	_, err = LoadConfig(writeConfig(t, "server: [not a map"))
	assert.ErrorContains(t, err, "failed to parse configuration file")

	_, err = LoadConfig(writeConfig(t, "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Server.ShutdownTimeout = -time.Second
	cfg.Logging.Format = "xml"
	cfg.Metrics.Path = "metrics"
	cfg.History.Enabled = true
	cfg.History.DSN = ""
	cfg.Applications.Enabled = []string{"carrier", "dessert"}
	cfg.Applications.Variables = map[string]map[string]any{"lunch": {"season": "Fall"}}

	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"server.shutdown_timeout",
		"logging.format",
		"metrics.path",
		"history.dsn",
		`unknown application "dessert"`,
		`unknown application "lunch"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("DECISIONS_SERVER_LISTEN_ADDRESS", ":7070")
	t.Setenv("DECISIONS_SERVER_SHUTDOWN_TIMEOUT", "1m")
	t.Setenv("DECISIONS_RESOURCES_DIR", "/srv/decisions")
	t.Setenv("DECISIONS_LOGGING_LEVEL", "error")
	t.Setenv("DECISIONS_HISTORY_ENABLED", "true")
	t.Setenv("DECISIONS_HISTORY_DSN", "history.db")
	t.Setenv("DECISIONS_METRICS_ENABLED", "false")
	t.Setenv("DECISIONS_APPLICATIONS_ENABLED", " carrier , ")

	cfg, err := LoadConfigWithEnvOverrides("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.ListenAddress)
	assert.Equal(t, time.Minute, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/decisions", cfg.Resources.Dir)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "history.db", cfg.History.DSN)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"carrier"}, cfg.Applications.Enabled)
}

func TestLoadConfigWithEnvOverrides_FileThenEnv(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n  format: json\n")
	t.Setenv("DECISIONS_LOGGING_FORMAT", "text")
	t.Setenv("DECISIONS_SERVER_SHUTDOWN_TIMEOUT", "soon")

	cfg, err := LoadConfigWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout, "unparsable durations are ignored")

	t.Setenv("DECISIONS_APPLICATIONS_ENABLED", "breakfast")
	_, err = LoadConfigWithEnvOverrides(path)
	assert.ErrorContains(t, err, "after environment overrides")
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig("../../config.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, []string{AppCarrier, AppDinner}, cfg.Applications.Enabled)

	patch, err := cfg.VariablePatch(AppDinner)
	require.NoError(t, err)
	assert.JSONEq(t, `{"guestCount":10}`, string(patch))
}
