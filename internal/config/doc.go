// Package config provides configuration structures and utilities for phishscan.
// It defines scoring policy, signal timeouts, reputation and classifier
// settings, server options and report preferences, and loads the optional
// .phishscan YAML file.
package config
