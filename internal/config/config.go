package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth" validate:"required"`
	Entropy      EntropyConfig      `mapstructure:"entropy" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the settings for verifying identity-provider tokens.
// No tokens are issued here.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// EntropyConfig contains the entropy scheduler settings. DefaultPeriod is
// the system fallback when neither board nor tenant config exists.
type EntropyConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required,min=1m"`
	DefaultPeriod time.Duration `mapstructure:"default_period" validate:"required,min=1h"`
}

// NotificationConfig contains the notification bundler settings.
type NotificationConfig struct {
	Window           time.Duration `mapstructure:"window" validate:"required,min=1m"`
	CatchAllInterval time.Duration `mapstructure:"catch_all_interval" validate:"required,min=1m"`
}
