// Package config loads, normalizes, and validates vocalprep configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VOCALPREP_FFMPEG. The Config type centralizes every knob the batch driver
// and CLI need: the demucs model list, segment duration, output layout, and
// the external tool commands.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
