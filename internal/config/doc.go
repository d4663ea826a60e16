// Package config loads, normalizes, and validates the TOML configuration
// that drives a sorting run.
//
// Load resolves the config file (explicit path, ~/.config/mediasort, or a
// project-local mediasort.toml), decodes it over repository defaults, expands
// ~ in all path fields, and rejects unusable combinations up front so the run
// coordinator can treat the struct as immutable. The embedded sample config
// doubles as user documentation and is written by "mediasort config init".
package config
