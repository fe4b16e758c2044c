package config

import (
	"time"
)

// Application names accepted in applications.enabled.
const (
	AppCarrier = "carrier"
	AppDinner  = "dinner"
)

// Config is the root configuration of the decision runtime.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Resources    ResourcesConfig    `yaml:"resources"`
	Logging      LoggingConfig      `yaml:"logging"`
	History      HistoryConfig      `yaml:"history"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Applications ApplicationsConfig `yaml:"applications"`
}

type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ResourcesConfig struct {
	// Dir is scanned for .yaml, .yml and .json decision resources.
	Dir string `yaml:"dir"`
	// DeploymentName names the deployment made at startup.
	DeploymentName string `yaml:"deployment_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ApplicationsConfig struct {
	Enabled []string `yaml:"enabled"`
	// Variables holds a JSON merge patch per application, applied over the
	// application's default input record.
	Variables map[string]map[string]any `yaml:"variables"`
}

// IsEnabled reports whether the named application should be registered.
func (a ApplicationsConfig) IsEnabled(name string) bool {
	for _, n := range a.Enabled {
		if n == name {
			return true
		}
	}
	return false
}
