// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the campusauth server.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" (PostgreSQL) and its DSN.
//   - SessionTimeout: idle window after which a session expires.
//   - CleanupInterval: how often expired sessions are swept.
//   - MaxLoginAttempts / LockoutDuration: consecutive failures before a lock, and its length.
//   - LogLevel / LogFormat: slog level name and "text" or "json".
//   - AdminUserName / AdminPassword / AdminEmail: account created on first start
//     when no user with that name exists. Do not keep the defaults in production.
type Config struct {
	DatabaseDriver   string
	DatabaseDSN      string
	SessionTimeout   time.Duration
	CleanupInterval  time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	LogLevel         string
	LogFormat        string
	AdminUserName    string
	AdminPassword    string
	AdminEmail       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:campusauth.db?_pragma=busy_timeout(5000)"
	c.SessionTimeout = 30 * time.Minute
	c.CleanupInterval = 5 * time.Minute
	c.MaxLoginAttempts = 5
	c.LockoutDuration = 15 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.AdminUserName = "admin"
	c.AdminPassword = "admin123"
	c.AdminEmail = "admin@school.edu"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return fmt.Errorf("database dsn is empty")
	case c.SessionTimeout <= 0:
		return fmt.Errorf("session timeout must be positive, got %s", c.SessionTimeout)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("cleanup interval must be positive, got %s", c.CleanupInterval)
	case c.MaxLoginAttempts <= 0:
		return fmt.Errorf("max login attempts must be positive, got %d", c.MaxLoginAttempts)
	case c.LockoutDuration <= 0:
		return fmt.Errorf("lockout duration must be positive, got %s", c.LockoutDuration)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	case c.AdminUserName == "":
		return fmt.Errorf("admin username is empty")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags. args
// excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
