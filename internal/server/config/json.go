package config

import (
	"encoding/json"
	"os"

	"github.com/kazna/user-service/internal/flagx"
	"github.com/kazna/user-service/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields
// distinguish "absent" from "zero" so a partial file only overrides what
// it names.
type JsonConfig struct {
	HTTPAddress                 *string         `json:"http_address"`
	GRPCAddress                 *string         `json:"grpc_address"`
	DatabaseDriver              *string         `json:"database_driver"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	TokenBackend                *string         `json:"token_backend"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity"`
	RequireCurrentPassword      *bool           `json:"require_current_password"`
	LogLevel                    *string         `json:"log_level"`
	LogFormat                   *string         `json:"log_format"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// Unreadable files and invalid JSON panic.
func parseJson(config *Config) {
	path := flagx.ConfigFile(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddress, c.HTTPAddress)
	setString(&config.GRPCAddress, c.GRPCAddress)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenBackend, c.TokenBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RequireCurrentPassword != nil {
		config.RequireCurrentPassword = *c.RequireCurrentPassword
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
