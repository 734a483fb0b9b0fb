// Package config provides centralized configuration management for the
// defimcp daemon, merging a JSON configuration file with environment
// variable overrides for secrets such as RPC endpoints and API keys.
package config
