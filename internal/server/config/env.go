package config

import "github.com/caarlos0/env/v11"

// EnvPrefix is prepended to every variable name in the Config env tags.
const EnvPrefix = "TOURCHECK_"

// parseEnv overlays Config with TOURCHECK_* environment variables. Unset
// variables keep the current value. Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
