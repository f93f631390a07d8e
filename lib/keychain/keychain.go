// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keychain stores the credentials that unlock encrypted
// layers, keyed by the canonical key of the chain they unlock.
//
// Because the key is pathspec.CanonicalKey, a passphrase set for a
// volume applies to every chain that resolves through that volume,
// whatever address the caller ends with. The key chain is populated
// explicitly; nothing is inferred.
package keychain

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/secret"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// KeyChain is safe for concurrent use.
type KeyChain struct {
	registry *registry.Registry

	mu      sync.RWMutex
	entries map[pathspec.Key]map[vfs.CredentialKind]*secret.Buffer
}

// New returns an empty KeyChain. When registry is non-nil,
// SetCredential rejects kinds the spec's backend type does not
// support.
func New(registry *registry.Registry) *KeyChain {
	return &KeyChain{
		registry: registry,
		entries:  make(map[pathspec.Key]map[vfs.CredentialKind]*secret.Buffer),
	}
}

// SetCredential stores value for spec's chain. value is copied into
// protected memory and zeroed in place, whether or not the call
// succeeds.
func (k *KeyChain) SetCredential(spec *pathspec.PathSpec, kind vfs.CredentialKind, value []byte) error {
	if spec == nil {
		secret.Zero(value)
		return fserr.Argumentf("setting credential: nil path spec")
	}
	if len(value) == 0 {
		return fserr.Argumentf("setting %s credential for %s: empty value", kind, spec.Tag())
	}
	if k.registry != nil && !k.registry.SupportsCredential(spec.Tag(), kind) {
		secret.Zero(value)
		return fserr.Argumentf("backend type %s does not support %s credentials", spec.Tag(), kind)
	}

	buffer, err := secret.NewFromBytes(value)
	if err != nil {
		secret.Zero(value)
		return fserr.IOf("storing %s credential: %w", kind, err)
	}
	k.store(spec.CanonicalKey(), kind, buffer)
	return nil
}

// SetCredentialBuffer stores buffer for spec's chain, taking ownership
// of it.
func (k *KeyChain) SetCredentialBuffer(spec *pathspec.PathSpec, kind vfs.CredentialKind, buffer *secret.Buffer) error {
	if spec == nil {
		buffer.Close()
		return fserr.Argumentf("setting credential: nil path spec")
	}
	if k.registry != nil && !k.registry.SupportsCredential(spec.Tag(), kind) {
		buffer.Close()
		return fserr.Argumentf("backend type %s does not support %s credentials", spec.Tag(), kind)
	}
	k.store(spec.CanonicalKey(), kind, buffer)
	return nil
}

func (k *KeyChain) store(key pathspec.Key, kind vfs.CredentialKind, buffer *secret.Buffer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	credentials, ok := k.entries[key]
	if !ok {
		credentials = make(map[vfs.CredentialKind]*secret.Buffer)
		k.entries[key] = credentials
	}
	if previous, ok := credentials[kind]; ok {
		previous.Close()
	}
	credentials[kind] = buffer
}

// GetCredential returns a heap copy of the stored value. Callers that
// can should prefer ExtractCredentialsFromPathSpec, which never leaves
// protected memory.
func (k *KeyChain) GetCredential(spec *pathspec.PathSpec, kind vfs.CredentialKind) ([]byte, bool) {
	if spec == nil {
		return nil, false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	buffer, ok := k.entries[spec.CanonicalKey()][kind]
	if !ok {
		return nil, false
	}
	return []byte(buffer.String()), true
}

// ExtractCredentialsFromPathSpec returns a snapshot of every
// credential stored for spec's chain. The snapshot owns independent
// buffers and must be closed by the caller. An empty snapshot is not
// an error: the backend decides whether it can open without
// credentials.
func (k *KeyChain) ExtractCredentialsFromPathSpec(spec *pathspec.PathSpec) (*vfs.Credentials, error) {
	if spec == nil {
		return nil, fserr.Argumentf("extracting credentials: nil path spec")
	}
	credentials := vfs.NewCredentials()

	k.mu.RLock()
	defer k.mu.RUnlock()
	for kind, buffer := range k.entries[spec.CanonicalKey()] {
		clone, err := buffer.Clone()
		if err != nil {
			credentials.Close()
			return nil, fserr.IOf("copying %s credential: %w", kind, err)
		}
		credentials.Set(kind, clone)
	}
	return credentials, nil
}

// Remove zeroes and forgets every credential stored for spec's chain.
func (k *KeyChain) Remove(spec *pathspec.PathSpec) error {
	if spec == nil {
		return fserr.Argumentf("removing credentials: nil path spec")
	}
	k.mu.Lock()
	credentials := k.entries[spec.CanonicalKey()]
	delete(k.entries, spec.CanonicalKey())
	k.mu.Unlock()
	return closeAll(credentials)
}

// Len returns the number of chains with stored credentials.
func (k *KeyChain) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}

// Close zeroes and forgets every stored credential. The KeyChain may
// be reused afterwards.
func (k *KeyChain) Close() error {
	k.mu.Lock()
	entries := k.entries
	k.entries = make(map[pathspec.Key]map[vfs.CredentialKind]*secret.Buffer)
	k.mu.Unlock()

	var err error
	for _, credentials := range entries {
		err = multierr.Append(err, closeAll(credentials))
	}
	return err
}

func closeAll(credentials map[vfs.CredentialKind]*secret.Buffer) error {
	var err error
	for _, buffer := range credentials {
		err = multierr.Append(err, buffer.Close())
	}
	return err
}
