// Package config loads, normalizes, and validates Cardbox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI and the persistence engine need: the working directory holding the
// media files, the backup destination, temp and data directories, and log
// settings.
//
// Components receive a *Config through their constructors; there is no
// process-wide configuration singleton. Always obtain settings through this
// package so downstream code receives sanitized paths, canonical log formats,
// and clear validation errors.
package config
