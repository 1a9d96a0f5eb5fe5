package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/campusauth/internal/flagx"
)

var ownFlags = []string{
	"-driver", "-d", "-t", "-i", "-m", "-l",
	"-log-level", "-log-format", "-admin-user", "-admin-password", "-admin-email",
}

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-driver string          database driver ("sqlite" or "pgx")
//	-d string               database DSN
//	-t duration             session idle timeout (e.g. "30m")
//	-i duration             expired-session sweep interval
//	-m int                  failed logins before lockout
//	-l duration             lockout duration
//	-log-level string       debug, info, warn or error
//	-log-format string      text or json
//	-admin-user string      bootstrap administrator username
//	-admin-password string  bootstrap administrator password
//	-admin-email string     bootstrap administrator email
//
// args is filtered with flagx.FilterArgs first, so flags owned by the JSON
// layer (-c/-config) are ignored here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, ownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.DurationVar(&config.SessionTimeout, "t", config.SessionTimeout, "session idle timeout")
	fs.DurationVar(&config.CleanupInterval, "i", config.CleanupInterval, "expired session sweep interval")
	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "failed logins before lockout")
	fs.DurationVar(&config.LockoutDuration, "l", config.LockoutDuration, "lockout duration")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (text|json)")
	fs.StringVar(&config.AdminUserName, "admin-user", config.AdminUserName, "bootstrap admin username")
	fs.StringVar(&config.AdminPassword, "admin-password", config.AdminPassword, "bootstrap admin password")
	fs.StringVar(&config.AdminEmail, "admin-email", config.AdminEmail, "bootstrap admin email")

	return fs.Parse(args)
}
