package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	MembershipTable   string        `mapstructure:"membership_table" yaml:"membership_table"`
	RateWindow        time.Duration `mapstructure:"rate_window" yaml:"rate_window"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RedisURL          string        `mapstructure:"redis_url" yaml:"redis_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
// RedisURL empty means the rate limiter keeps its state in process memory.
func Default() Config {
	return Config{
		Addr:              ":8080",
		LogLevel:          "info",
		DatabasePath:      "groupcast.db",
		MembershipTable:   "memberships",
		RateWindow:        time.Second,
		MaxMessageBytes:   64 << 10,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.MembershipTable != "" {
		c.MembershipTable = other.MembershipTable
	}
	if other.RateWindow != 0 {
		c.RateWindow = other.RateWindow
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}
