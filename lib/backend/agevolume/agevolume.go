// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agevolume is the backend for age-encrypted volumes. An AGE
// node decrypts its parent's bytes with a passphrase or an X25519
// identity and exposes the plaintext as a single virtual root entry.
// Decryption is random-access: reads decrypt only the chunks they
// touch.
package agevolume

import (
	"io"

	"filippo.io/age"
	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/sealed"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// Type is the AGE path-spec type. It carries no attributes.
var Type = &pathspec.Type{
	Tag:    "AGE",
	Parent: pathspec.ParentRequired,
}

// Credentials are the credential kinds an AGE volume accepts.
var Credentials = []vfs.CredentialKind{vfs.CredentialPassword, vfs.CredentialIdentity}

// New returns an unopened AGE file system.
func New(environment vfs.Environment) vfs.FileSystem {
	return &FileSystem{environment: environment}
}

// FileSystem is an unlocked age volume. It keeps the parent object
// open until Close.
type FileSystem struct {
	environment vfs.Environment
	state       vfs.State
	spec        *pathspec.PathSpec

	parent    vfs.FileObject
	plaintext io.ReaderAt
	size      int64
}

// Open unlocks the volume held by spec's parent.
func (f *FileSystem) Open(spec *pathspec.PathSpec, credentials *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if !spec.HasParent() {
		return fserr.Structuralf("AGE path spec requires a parent")
	}
	identities, err := identities(credentials)
	if err != nil {
		return err
	}

	parent, err := f.environment.Resolver.OpenFileObject(spec.Parent())
	if err != nil {
		return err
	}
	plaintext, size, err := age.DecryptReaderAt(parent, parent.Size(), identities...)
	if err != nil {
		if sealed.IsIncorrectCredential(err) {
			err = fserr.Accessf("unlocking age volume: %w", err)
		} else {
			err = fserr.IOf("reading age volume: %w", err)
		}
		return multierr.Append(err, parent.Close())
	}

	f.environment.Log().Debug("unlocked age volume", "spec", spec.Parent().String(), "size", size)
	f.spec = spec.WithoutAddress()
	f.parent = parent
	f.plaintext = plaintext
	f.size = size
	f.state.Opened()
	return nil
}

// identities collects every age identity the credentials describe. A
// passphrase and an identity file may both be supplied; age tries each.
func identities(credentials *vfs.Credentials) ([]age.Identity, error) {
	var result []age.Identity
	if passphrase, ok := credentials.Get(vfs.CredentialPassword); ok {
		identity, err := sealed.PassphraseIdentity(passphrase)
		if err != nil {
			return nil, fserr.Accessf("AGE password: %w", err)
		}
		result = append(result, identity)
	}
	if identityFile, ok := credentials.Get(vfs.CredentialIdentity); ok {
		parsed, err := sealed.ParseIdentities(identityFile)
		if err != nil {
			return nil, fserr.Accessf("AGE identity: %w", err)
		}
		result = append(result, parsed...)
	}
	if len(result) == 0 {
		return nil, fserr.Accessf("AGE volume requires a password or identity credential")
	}
	return result, nil
}

// Close releases the parent object.
func (f *FileSystem) Close() error {
	if err := f.state.BeginClose(); err != nil {
		return err
	}
	return f.parent.Close()
}

// PathSpec returns the address-free AGE spec.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the decrypted volume.
func (f *FileSystem) RootFileEntry() (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewStreamRoot(f.spec, f.size, f.openPlaintext), nil
}

// FileEntryByPathSpec returns the root entry. An age volume has no
// sub entries, so any address is rejected.
func (f *FileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if address := spec.Address(); address != nil {
		return nil, fserr.Argumentf("AGE volume has no sub entry at %s", address)
	}
	return f.RootFileEntry()
}

func (f *FileSystem) openPlaintext() (vfs.FileObject, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewReaderAtObject(f.plaintext, f.size, nil), nil
}
