package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate returns every problem found in cfg joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must not be negative, got %s", cfg.Server.ShutdownTimeout))
	}
	if cfg.Resources.Dir == "" {
		errs = append(errs, errors.New("resources.dir is required"))
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", cfg.Logging.Level))
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json; got %q", cfg.Logging.Format))
	}

	if cfg.History.Enabled && cfg.History.DSN == "" {
		errs = append(errs, errors.New("history.dsn is required when history is enabled"))
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", cfg.Metrics.Path))
	}

	for _, name := range cfg.Applications.Enabled {
		if name != AppCarrier && name != AppDinner {
			errs = append(errs, fmt.Errorf("applications.enabled: unknown application %q", name))
		}
	}
	for name := range cfg.Applications.Variables {
		if name != AppCarrier && name != AppDinner {
			errs = append(errs, fmt.Errorf("applications.variables: unknown application %q", name))
		}
	}

	return errors.Join(errs...)
}
