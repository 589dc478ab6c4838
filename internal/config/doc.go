// Package config loads, normalizes, and validates hinter configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANTHROPIC_API_KEY. The Config type centralizes every knob the daemon and
// CLI need: RetroArch network settings, input chords, display backends,
// provider credentials, and quota limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
