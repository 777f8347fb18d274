// Package config loads, normalizes, and validates voicereel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// VOICEREEL_API_KEYS and ELEVENLABS_API_KEY. The Config type centralizes every
// knob the CLI and pipeline need, so credentials, voice settings, and the
// working directory are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
