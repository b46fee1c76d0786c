// Package config loads component configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - .env files are loaded once per process (the default .env, or the files
//     passed with WithEnvFiles). Existing variables are never overridden.
//   - Environment variables are parsed into any struct using `env` and
//     `envDefault` field tags.
//   - Each configuration type (and prefix) is parsed once and cached, so
//     every component reading the same struct sees the same values.
//
// Every notifykit component exposes a Config struct with env tags and a
// WithConfig option, so a binary only needs:
//
//	var cfg realtime.Config
//	config.MustLoad(&cfg)
//	ch := realtime.NewChannel(resolver, dialer, realtime.WithConfig(cfg))
//
// Reset clears the cache and is meant for tests.
package config
