// Package config defines the platform configuration model.
//
// Configuration is loaded once from a YAML file, defaulted, validated, and
// passed as an immutable struct to every component at construction. Nothing
// reads cluster state from process environment after load; environment
// variables are consulted only for cloud credentials and timeout overrides.
package config
