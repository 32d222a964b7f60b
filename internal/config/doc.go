// Package config provides configuration structures and utilities for reviewscan.
// It defines the search request defaults, proxy and retry settings, output
// destinations and the optional result store, and loads them from a YAML file.
package config
