// Package config loads harness settings from an optional YAML file and
// STEPCHECK_* environment variables.
package config

import (
	"time"
)

// Config holds the settings shared by every scenario run.
type Config struct {
	// BaseURL, when set, fills the base_url global unless the varfile sets it.
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	LogsDir   string        `mapstructure:"logs_dir" validate:"required"`
	LogLevel  string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
}

const (
	DefaultTimeout   = 30 * time.Second
	DefaultLogsDir   = ".stepcheck/logs"
	DefaultLogLevel  = "info"
	DefaultUserAgent = "Stepcheck-Http-Client/1.0"
)
