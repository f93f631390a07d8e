// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"io"

	"github.com/bureau-foundation/strata/lib/pathspec"
)

// FileSystem is one opened backend instance.
//
// Open performs backend setup for spec, which may carry an address;
// the FileSystem's own spec is spec.WithoutAddress(). Open fails only
// with fserr kinds, and releases everything it acquired before
// returning an error. Every other method fails once the FileSystem is
// closed.
type FileSystem interface {
	Open(spec *pathspec.PathSpec, credentials *Credentials) error
	Close() error
	PathSpec() *pathspec.PathSpec
	RootFileEntry() (FileEntry, error)
	FileEntryByPathSpec(spec *pathspec.PathSpec) (FileEntry, error)
}

// FileEntry is an addressable unit inside a FileSystem. A virtual
// entry has no physical backing of its own (the whole of an unlocked
// volume, the table behind a set of rows).
type FileEntry interface {
	Name() string
	PathSpec() *pathspec.PathSpec
	IsRoot() bool
	IsVirtual() bool
	IsDirectory() bool
	Size() (int64, error)
	SubFileEntries() ([]FileEntry, error)
	Open() (FileObject, error)
}

// FileObject is a readable byte view of an entry.
type FileObject interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
	Size() int64
}
