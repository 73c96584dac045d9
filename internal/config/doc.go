// Package config loads, normalizes, and validates the TOML configuration
// shared by the copernicus CLI and daemon.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/copernicus/config.toml, then a project-local copernicus.toml.
// Load returns a fully expanded config: home-relative paths are made
// absolute, empty values are back-filled from defaults, and invalid
// combinations are rejected before any component starts.
package config
