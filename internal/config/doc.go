// Package config loads, normalizes, and validates Reelsmith configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PEXELS_API_KEY. The Config type centralizes every knob the pipeline, CLI and
// HTTP API need: output layout, video encoding, speech voice, stock provider
// credentials, music mixing, subtitle style and background selection.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
