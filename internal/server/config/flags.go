package config

import (
	"flag"
	"os"
	"time"

	"github.com/kazna/user-service/internal/flagx"
)

var settingFlags = []string{"-a", "-g", "-D", "-d", "-s", "-b", "-t", "-p", "-l"}

// FlagNames are every command-line flag the config layer consumes,
// including the config file switch.
var FlagNames = append([]string{"-c", "-config"}, settingFlags...)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-g string   gRPC health bind address
//	-D string   database driver: pgx, sqlite, memory
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-b string   token backend: db, jwt
//	-t int      access token validity, minutes
//	-p bool     require current password on set_password
//	-l string   log level
//
// Only the flags above are picked out of os.Args so -c/-config and CLI
// subcommand flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], settingFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "HTTP address and port")
	fs.StringVar(&config.GRPCAddress, "g", config.GRPCAddress, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver (pgx, sqlite, memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TokenBackend, "b", config.TokenBackend, "token backend (db, jwt)")
	fs.BoolVar(&config.RequireCurrentPassword, "p", config.RequireCurrentPassword, "require current_password on set_password")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
}
