// Package config loads and validates relight.yaml, the project
// configuration file for the relight server and CLI.
//
// Configuration resolves in three layers: built-in defaults, the YAML
// file, then RELIGHT_* environment variables, each overriding the
// previous.
package config
