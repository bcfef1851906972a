// Package harnessconfig loads the harness configuration from a YAML, JSON, or TOML file and converts
// it into the ServiceSpec values used by the harness package.
package harnessconfig
