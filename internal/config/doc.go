// Package config loads, normalizes, and validates bilisum configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BILISUM_AI_TOKEN. The Config type centralizes every knob the CLI and the
// pipeline need, from Bilibili credentials to AI endpoint tunables.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
