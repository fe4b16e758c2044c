package config

import "time"

const (
	DefaultListenAddress   = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultResourcesDir    = "resources"
	DefaultDeploymentName  = "decision-app"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultHistoryDSN      = "data/history.db"
	DefaultMetricsPath     = "/metrics"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields. Booleans are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Resources.Dir == "" {
		cfg.Resources.Dir = DefaultResourcesDir
	}
	if cfg.Resources.DeploymentName == "" {
		cfg.Resources.DeploymentName = DefaultDeploymentName
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.History.DSN == "" {
		cfg.History.DSN = DefaultHistoryDSN
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Applications.Enabled == nil {
		cfg.Applications.Enabled = []string{AppCarrier, AppDinner}
	}
}
