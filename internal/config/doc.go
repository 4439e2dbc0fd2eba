// Package config loads, normalizes, and validates misa configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY and MISA_GCS_BUCKET. Paths left empty are derived from
// data_dir so a single setting relocates manifests, raw downloads, and the
// audio cache together.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors. Core packages never read the
// environment themselves.
package config
