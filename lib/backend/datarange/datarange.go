// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package datarange is the backend for byte ranges. A DATA_RANGE node
// exposes range_size bytes of its parent starting at range_offset, or
// everything from range_offset on when range_size is omitted. Reads go
// straight to the parent object, which stays open while the file
// system is cached.
package datarange

import (
	"io"

	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/vfs"
)

const (
	fieldOffset = "range_offset"
	fieldSize   = "range_size"
)

// Type is the DATA_RANGE path-spec type.
var Type = &pathspec.Type{
	Tag:    "DATA_RANGE",
	Parent: pathspec.ParentRequired,
	Fields: []pathspec.FieldSpec{
		{Name: fieldOffset, Kind: pathspec.FieldInt, Required: true},
		{Name: fieldSize, Kind: pathspec.FieldInt},
	},
}

// NewPathSpec builds a DATA_RANGE spec, rejecting negative offsets and
// sizes.
func NewPathSpec(attributes pathspec.Attributes, parent *pathspec.PathSpec) (*pathspec.PathSpec, error) {
	spec, err := Type.New(attributes, parent)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{fieldOffset, fieldSize} {
		if value, ok := spec.IntField(name); ok && value < 0 {
			return nil, fserr.Argumentf("DATA_RANGE %s must not be negative, got %d", name, value)
		}
	}
	return spec, nil
}

// Register adds DATA_RANGE to reg.
func Register(reg *registry.Registry) error {
	return reg.Register(Type.Tag, NewPathSpec, New)
}

// New returns an unopened DATA_RANGE file system.
func New(environment vfs.Environment) vfs.FileSystem {
	return &FileSystem{environment: environment}
}

// FileSystem is a window onto the parent object.
type FileSystem struct {
	environment vfs.Environment
	state       vfs.State
	spec        *pathspec.PathSpec
	parent      vfs.FileObject
	section     *io.SectionReader
}

// Open opens the parent and checks that the range lies within it.
func (f *FileSystem) Open(spec *pathspec.PathSpec, _ *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if !spec.HasParent() {
		return fserr.Structuralf("DATA_RANGE path spec requires a parent")
	}
	offset, _ := spec.IntField(fieldOffset)

	parent, err := f.environment.Resolver.OpenFileObject(spec.Parent())
	if err != nil {
		return err
	}
	parentSize := parent.Size()
	size, sized := spec.IntField(fieldSize)
	if !sized {
		size = parentSize - offset
	}
	if offset < 0 || size < 0 || offset > parentSize || size > parentSize-offset {
		err := fserr.IOf("range %d+%d exceeds the %d byte parent", offset, size, parentSize)
		return multierr.Append(err, parent.Close())
	}

	f.spec = spec.WithoutAddress()
	f.parent = parent
	f.section = io.NewSectionReader(parent, offset, size)
	f.state.Opened()
	return nil
}

// Close releases the parent object.
func (f *FileSystem) Close() error {
	if err := f.state.BeginClose(); err != nil {
		return err
	}
	return f.parent.Close()
}

// PathSpec returns the address-free spec.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the range.
func (f *FileSystem) RootFileEntry() (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewStreamRoot(f.spec, f.section.Size(), f.open), nil
}

// FileEntryByPathSpec returns the root entry; a range has no sub
// entries.
func (f *FileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if address := spec.Address(); address != nil {
		return nil, fserr.Argumentf("DATA_RANGE has no sub entry at %s", address)
	}
	return f.RootFileEntry()
}

func (f *FileSystem) open() (vfs.FileObject, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewReaderAtObject(f.section, f.section.Size(), nil), nil
}
