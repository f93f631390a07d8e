// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package backendtest wires a FAKE store, a registry, a keychain, and a
// resolver together for backend tests. Layered backends are exercised
// through the resolver so parent opening and credential injection take
// the production path.
package backendtest

import (
	"io"
	"testing"

	"github.com/bureau-foundation/strata/lib/backend/fake"
	"github.com/bureau-foundation/strata/lib/keychain"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/resolver"
)

// Harness is one isolated resolver over a FAKE store.
type Harness struct {
	Store    *fake.Store
	Registry *registry.Registry
	KeyChain *keychain.KeyChain
	Resolver *resolver.Resolver

	// TempDir is the resolver's scratch directory.
	TempDir string
}

// New builds a harness. register adds the backends under test; FAKE
// is always registered. Every cached file system is closed on cleanup.
func New(t testing.TB, register func(*registry.Registry) error) *Harness {
	t.Helper()
	return NewWithBufferLimit(t, 0, register)
}

// NewWithBufferLimit builds a harness whose backends may materialize at
// most limit bytes of one object in memory. Zero keeps the default.
func NewWithBufferLimit(t testing.TB, limit int64, register func(*registry.Registry) error) *Harness {
	t.Helper()
	store := fake.NewStore()
	reg := registry.New()
	if err := reg.RegisterType(fake.Type, fake.Constructor(store)); err != nil {
		t.Fatalf("registering FAKE: %v", err)
	}
	if register != nil {
		if err := register(reg); err != nil {
			t.Fatalf("registering backends: %v", err)
		}
	}
	keyChain := keychain.New(reg)
	t.Cleanup(func() { keyChain.Close() })

	tempDir := t.TempDir()
	res, err := resolver.New(resolver.Options{
		Registry:      reg,
		KeyChain:      keyChain,
		TempDir:       tempDir,
		MaxBufferSize: limit,
	})
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	return &Harness{Store: store, Registry: reg, KeyChain: keyChain, Resolver: res, TempDir: tempDir}
}

// File stores data at location and returns the FAKE spec addressing it.
func (h *Harness) File(t testing.TB, location string, data []byte) *pathspec.PathSpec {
	t.Helper()
	if err := h.Store.AddFile(location, data); err != nil {
		t.Fatalf("AddFile(%s): %v", location, err)
	}
	return h.Spec(t, fake.Type.Tag, pathspec.Attributes{"location": location}, nil)
}

// Spec builds a path spec through the registry, failing the test on
// error.
func (h *Harness) Spec(t testing.TB, tag pathspec.Tag, attributes pathspec.Attributes, parent *pathspec.PathSpec) *pathspec.PathSpec {
	t.Helper()
	spec, err := h.Registry.NewPathSpec(tag, attributes, parent)
	if err != nil {
		t.Fatalf("NewPathSpec(%s): %v", tag, err)
	}
	return spec
}

// ReadObject resolves spec and returns its full contents.
func (h *Harness) ReadObject(t testing.TB, spec *pathspec.PathSpec) []byte {
	t.Helper()
	object, err := h.Resolver.OpenFileObject(spec)
	if err != nil {
		t.Fatalf("OpenFileObject(%s): %v", spec, err)
	}
	defer object.Close()
	data := make([]byte, object.Size())
	if _, err := io.ReadFull(io.NewSectionReader(object, 0, object.Size()), data); err != nil {
		t.Fatalf("reading %s: %v", spec, err)
	}
	return data
}
