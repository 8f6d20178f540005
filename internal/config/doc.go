// Package config loads, normalizes, and validates mediasort configuration.
//
// It supplies repository defaults, reads an optional TOML file, layers the
// project-local KEY=VALUE settings file, environment variables, and -o
// KEY=VALUE options on top through a strict allow-list, then expands paths and
// validates enumerations. The Config type centralizes every knob the
// organizer, backup, and CLI need.
//
// Always obtain settings through this package so downstream stages receive a
// single immutable value with sanitized paths and clear validation errors.
package config
