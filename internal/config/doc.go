// Package config loads config.yml and rubric.yml.
//
// Both documents are validated against an embedded CUE schema before they
// are decoded with yaml.v3, so type and range errors carry the YAML file
// position. Missing files are not errors: they yield the defaults.
package config
