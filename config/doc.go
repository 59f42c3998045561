// Package config loads configuration from YAML files, .env files and the
// environment.
//
// LoadConfig searches standard locations for config.yml and .env (or uses
// explicit paths). Every leaf key of the target struct can then be
// overridden by an environment variable: apify.token by APIFY_TOKEN,
// apify.poll.timeout by APIFY_POLL_TIMEOUT.
//
//	var cfg CLIConfig
//	err := config.LoadConfig("apify", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithDefaults(map[string]any{"apify.base_url": apify.DefaultBaseURL}),
//	)
package config
