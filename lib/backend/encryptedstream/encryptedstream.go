// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package encryptedstream is the backend for authenticated encrypted
// streams. An ENCRYPTED_STREAM node decrypts its parent's bytes with a
// key derived from the key_data credential and exposes the plaintext
// as a single virtual root entry. The whole stream is authenticated
// before any byte is served.
package encryptedstream

import (
	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/vfs"
)

const fieldMethod = "encryption_method"

// MethodXChaCha20Poly1305 is the only supported encryption_method.
const MethodXChaCha20Poly1305 = "xchacha20-poly1305"

// Type is the ENCRYPTED_STREAM path-spec type.
var Type = &pathspec.Type{
	Tag:    "ENCRYPTED_STREAM",
	Parent: pathspec.ParentRequired,
	Fields: []pathspec.FieldSpec{{Name: fieldMethod, Kind: pathspec.FieldString, Required: true}},
}

// NewPathSpec builds an ENCRYPTED_STREAM spec, rejecting unknown
// methods.
func NewPathSpec(attributes pathspec.Attributes, parent *pathspec.PathSpec) (*pathspec.PathSpec, error) {
	spec, err := Type.New(attributes, parent)
	if err != nil {
		return nil, err
	}
	if method := spec.StringField(fieldMethod); method != MethodXChaCha20Poly1305 {
		return nil, fserr.Argumentf("unknown encryption method %q", method)
	}
	return spec, nil
}

// Register adds ENCRYPTED_STREAM to reg.
func Register(reg *registry.Registry) error {
	return reg.Register(Type.Tag, NewPathSpec, New, vfs.CredentialKeyData)
}

// New returns an unopened ENCRYPTED_STREAM file system.
func New(environment vfs.Environment) vfs.FileSystem {
	return &FileSystem{environment: environment}
}

// FileSystem holds one decrypted stream in memory.
type FileSystem struct {
	environment vfs.Environment
	state       vfs.State
	spec        *pathspec.PathSpec
	data        []byte
}

// Open reads, authenticates, and decrypts the parent object. The
// parent is released before Open returns.
func (f *FileSystem) Open(spec *pathspec.PathSpec, credentials *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if !spec.HasParent() {
		return fserr.Structuralf("ENCRYPTED_STREAM path spec requires a parent")
	}
	keyData, ok := credentials.Get(vfs.CredentialKeyData)
	if !ok {
		return fserr.Accessf("ENCRYPTED_STREAM requires a key_data credential")
	}

	parent, err := f.environment.Resolver.OpenFileObject(spec.Parent())
	if err != nil {
		return err
	}
	blob, err := vfs.ReadAll(parent, f.environment.BufferLimit()+BlobOverhead)
	if err = multierr.Append(err, parent.Close()); err != nil {
		return err
	}
	data, err := unseal(blob, keyData)
	if err != nil {
		return err
	}

	f.spec = spec.WithoutAddress()
	f.data = data
	f.state.Opened()
	return nil
}

// Close drops the plaintext.
func (f *FileSystem) Close() error {
	if err := f.state.BeginClose(); err != nil {
		return err
	}
	clear(f.data)
	f.data = nil
	return nil
}

// PathSpec returns the address-free spec.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the plaintext stream.
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
		return nil, fserr.Argumentf("ENCRYPTED_STREAM has no sub entry at %s", address)
	}
	return f.RootFileEntry()
}

func (f *FileSystem) open() (vfs.FileObject, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewBytesObject(f.data), nil
}
