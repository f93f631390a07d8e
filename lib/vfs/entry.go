// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"github.com/bureau-foundation/strata/lib/pathspec"
)

// streamRoot is the single virtual entry of a root-only backend.
type streamRoot struct {
	spec *pathspec.PathSpec
	size int64
	open func() (FileObject, error)
}

// NewStreamRoot returns the virtual root entry of a root-only backend
// (an unlocked volume, a decompressed stream). open produces a fresh
// object over the backend's content on each call.
func NewStreamRoot(spec *pathspec.PathSpec, size int64, open func() (FileObject, error)) FileEntry {
	return &streamRoot{spec: spec, size: size, open: open}
}

func (e *streamRoot) Name() string { return "" }
func (e *streamRoot) PathSpec() *pathspec.PathSpec { return e.spec }
func (e *streamRoot) IsRoot() bool { return true }
func (e *streamRoot) IsVirtual() bool { return true }
func (e *streamRoot) IsDirectory() bool { return false }
func (e *streamRoot) Size() (int64, error) { return e.size, nil }
func (e *streamRoot) SubFileEntries() ([]FileEntry, error) { return nil, nil }
func (e *streamRoot) Open() (FileObject, error) { return e.open() }
