// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compressedstream is the backend for compressed byte
// streams. A COMPRESSED_STREAM node decompresses its parent's bytes,
// bounded by the resolver's buffer limit, and exposes the result as a
// single virtual root entry.
package compressedstream

import (
	"io"

	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/vfs"
)

const fieldMethod = "compression_method"

// Type is the COMPRESSED_STREAM path-spec type.
var Type = &pathspec.Type{
	Tag:    "COMPRESSED_STREAM",
	Parent: pathspec.ParentRequired,
	Fields: []pathspec.FieldSpec{{Name: fieldMethod, Kind: pathspec.FieldString, Required: true}},
}

// NewPathSpec builds a COMPRESSED_STREAM spec, rejecting unknown
// methods.
func NewPathSpec(attributes pathspec.Attributes, parent *pathspec.PathSpec) (*pathspec.PathSpec, error) {
	spec, err := Type.New(attributes, parent)
	if err != nil {
		return nil, err
	}
	if _, err := ParseMethod(spec.StringField(fieldMethod)); err != nil {
		return nil, err
	}
	return spec, nil
}

// Register adds COMPRESSED_STREAM to reg.
func Register(reg *registry.Registry) error {
	return reg.Register(Type.Tag, NewPathSpec, New)
}

// New returns an unopened COMPRESSED_STREAM file system.
func New(environment vfs.Environment) vfs.FileSystem {
	return &FileSystem{environment: environment}
}

// FileSystem holds one decompressed stream in memory.
type FileSystem struct {
	environment vfs.Environment
	state       vfs.State
	spec        *pathspec.PathSpec
	data        []byte
}

// Open decompresses the parent object. The parent is released before
// Open returns.
func (f *FileSystem) Open(spec *pathspec.PathSpec, _ *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if !spec.HasParent() {
		return fserr.Structuralf("COMPRESSED_STREAM path spec requires a parent")
	}
	method, err := ParseMethod(spec.StringField(fieldMethod))
	if err != nil {
		return err
	}

	parent, err := f.environment.Resolver.OpenFileObject(spec.Parent())
	if err != nil {
		return err
	}
	data, err := decompress(method, parent, f.environment.BufferLimit())
	if err = multierr.Append(err, parent.Close()); err != nil {
		return err
	}

	f.environment.Log().Debug("decompressed stream",
		"method", string(method),
		"compressed", parent.Size(),
		"size", len(data),
	)
	f.spec = spec.WithoutAddress()
	f.data = data
	f.state.Opened()
	return nil
}

func decompress(method Method, parent vfs.FileObject, limit int64) ([]byte, error) {
	decoder, err := newDecoder(method, io.NewSectionReader(parent, 0, parent.Size()))
	if err != nil {
		return nil, fserr.IOf("%s stream: %w", method, err)
	}
	data, err := vfs.ReadAllLimited(decoder, limit)
	err = multierr.Append(err, decoder.Close())
	if err != nil {
		if _, ok := fserr.KindOf(err); ok {
			return nil, err
		}
		return nil, fserr.IOf("%s stream: %w", method, err)
	}
	return data, nil
}

// Close drops the decompressed data.
func (f *FileSystem) Close() error {
	if err := f.state.BeginClose(); err != nil {
		return err
	}
	f.data = nil
	return nil
}

// PathSpec returns the address-free spec.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the decompressed stream.
func (f *FileSystem) RootFileEntry() (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewStreamRoot(f.spec, int64(len(f.data)), f.open), nil
}

// FileEntryByPathSpec returns the root entry; a stream has no sub
// entries.
func (f *FileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if address := spec.Address(); address != nil {
		return nil, fserr.Argumentf("COMPRESSED_STREAM has no sub entry at %s", address)
	}
	return f.RootFileEntry()
}

func (f *FileSystem) open() (vfs.FileObject, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewBytesObject(f.data), nil
}
