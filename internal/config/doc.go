// Package config loads the repobee configuration file.
//
// The file is TOML with a [repobee] core section and one top-level
// section per plugin, named after the plugin identifier. Arguments
// declared configurable read their value from the key matching their
// name inside the owning section.
package config
