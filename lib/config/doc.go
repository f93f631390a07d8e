// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for strata.
//
// Configuration is loaded from a single file specified by either the
// STRATA_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). [Resolve] picks between them and falls back to
// [Default] when neither is given. There is no ~/.config discovery
// and no automatic file search.
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: a
// smaller in-memory buffer limit and info-level logging.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${TMPDIR}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Resolver, SQLite, Logging
//   - [Default] -- returns a Config with development defaults
//   - [Load], [LoadFile], and [Resolve] -- the entry points
//
// This package depends on no other strata packages.
package config
