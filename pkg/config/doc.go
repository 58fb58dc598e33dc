// Package config loads process configuration from environment variables.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct parsing. Every package of the service
// declares its own Config struct with `env` tags; cmd/leadmail loads each one
// once at start-up and passes the values into constructors. Nothing reads the
// environment after that point.
//
// # Usage
//
//	var cfg email.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("mail config: %v", err)
//	}
//
// Parsed values are cached per type, so repeated Load calls are cheap and
// always return the same copy. Tests that change the environment call
// ResetCache between cases.
//
// # Errors
//
//   - ErrParsingConfig  – env vars could not be parsed (missing required value, bad duration, ...).
//   - ErrLoadingEnvFile – LoadEnv could not read a requested file.
//   - ErrNilPointer     – nil pointer passed to Load.
package config
