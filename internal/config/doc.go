// Package config loads, normalizes, and validates Whetstone configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours per-provider credential
// environment fallbacks such as OPENAI_API_KEY. The Config type centralizes
// every knob the daemon and CLI need: the backend provider and its
// connection settings, the retry budget, and the structured-recovery guards.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
