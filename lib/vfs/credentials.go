// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"slices"

	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/secret"
)

// CredentialKind names a kind of unlocking material.
type CredentialKind string

const (
	// CredentialPassword is a passphrase.
	CredentialPassword CredentialKind = "password"
	// CredentialRecoveryPassword is a passphrase registered as a
	// recovery recipient.
	CredentialRecoveryPassword CredentialKind = "recovery_password"
	// CredentialKeyData is raw key material.
	CredentialKeyData CredentialKind = "key_data"
	// CredentialIdentity is a private key in its text encoding
	// (an age X25519 identity, for example).
	CredentialIdentity CredentialKind = "identity"
)

// ParseCredentialKind validates a credential kind name.
func ParseCredentialKind(name string) (CredentialKind, error) {
	switch kind := CredentialKind(name); kind {
	case CredentialPassword, CredentialRecoveryPassword, CredentialKeyData, CredentialIdentity:
		return kind, nil
	default:
		return "", fserr.Argumentf("unknown credential kind %q", name)
	}
}

// Credentials is the set of credentials handed to one FileSystem
// Open. It owns its buffers. A nil *Credentials is an empty set.
type Credentials struct {
	values map[CredentialKind]*secret.Buffer
}

// NewCredentials returns an empty set.
func NewCredentials() *Credentials {
	return &Credentials{values: make(map[CredentialKind]*secret.Buffer)}
}

// Set stores buffer under kind, taking ownership of it. A previous
// buffer for the same kind is closed.
func (c *Credentials) Set(kind CredentialKind, buffer *secret.Buffer) {
	if previous, ok := c.values[kind]; ok {
		previous.Close()
	}
	c.values[kind] = buffer
}

// Get returns the buffer for kind. The buffer stays owned by the set.
func (c *Credentials) Get(kind CredentialKind) (*secret.Buffer, bool) {
	if c == nil {
		return nil, false
	}
	buffer, ok := c.values[kind]
	return buffer, ok
}

// Has reports whether a credential of the given kind is present.
func (c *Credentials) Has(kind CredentialKind) bool {
	_, ok := c.Get(kind)
	return ok
}

// Kinds returns the kinds present, sorted.
func (c *Credentials) Kinds() []CredentialKind {
	if c == nil {
		return nil
	}
	kinds := make([]CredentialKind, 0, len(c.values))
	for kind := range c.values {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Len returns the number of credentials in the set.
func (c *Credentials) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// Close zeroes and releases every buffer in the set.
func (c *Credentials) Close() error {
	if c == nil {
		return nil
	}
	var err error
	for kind, buffer := range c.values {
		err = multierr.Append(err, buffer.Close())
		delete(c.values, kind)
	}
	return err
}
