// Package config loads and merges cadetprep configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (GEMINI_API_KEY, CADETPREP_PROVIDER, CADETPREP_CACHE_DIR, etc.)
//  3. Config file ($XDG_CONFIG_HOME/cadetprep/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write one back, and
// [SetField] to update a single dotted key such as "cache.duration_hours" or
// "ai_enhancements.news". [Watch] re-runs [Load] whenever the file changes.
package config
