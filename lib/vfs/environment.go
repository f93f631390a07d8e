// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"log/slog"

	"github.com/bureau-foundation/strata/lib/pathspec"
)

// Resolver opens the byte view of a parent layer. The object's Close
// releases the parent's backend reference, so a backend that keeps a
// parent object for its lifetime must close it in its own Close.
type Resolver interface {
	OpenFileObject(spec *pathspec.PathSpec) (FileObject, error)
}

// Environment is what the resolver hands a backend constructor.
type Environment struct {
	Resolver Resolver
	Logger   *slog.Logger

	// TempDir is where backends that need a real file (SQLite) write
	// scratch copies. Empty means os.TempDir().
	TempDir string

	// MaxBufferSize bounds how many bytes a backend materializes in
	// memory for one object.
	MaxBufferSize int64
}

// BufferLimit returns MaxBufferSize, or DefaultMaxBufferSize when
// unset.
func (e Environment) BufferLimit() int64 {
	if e.MaxBufferSize <= 0 {
		return DefaultMaxBufferSize
	}
	return e.MaxBufferSize
}

// Log returns the environment's logger, or a discarding logger.
func (e Environment) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}
