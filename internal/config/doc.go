// Package config provides configuration structures and utilities for ucicrawl.
// It defines the crawl, politeness, admission and report settings, their
// defaults, validation, and the optional YAML configuration file.
package config
