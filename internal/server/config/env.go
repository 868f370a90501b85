package config

import "github.com/caarlos0/env/v11"

// EnvPrefix namespaces every variable, e.g. USERS_DATABASE_DSN.
const EnvPrefix = "USERS_"

// parseEnv overlays variables that are set; unset ones keep the current value.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
