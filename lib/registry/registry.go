// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry maps backend type tags to their constructors.
//
// A Registry is built explicitly at startup (see lib/backend/builtin)
// and is read-only afterwards in normal operation. Tests construct
// their own.
package registry

import (
	"slices"
	"sort"
	"sync"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// FileSystemConstructor returns a new, unopened FileSystem.
type FileSystemConstructor func(environment vfs.Environment) vfs.FileSystem

// Entry is one registered backend type.
type Entry struct {
	Tag           pathspec.Tag
	NewPathSpec   pathspec.Constructor
	NewFileSystem FileSystemConstructor
	Credentials   []vfs.CredentialKind
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[pathspec.Tag]Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[pathspec.Tag]Entry)}
}

// Register adds a backend type. Registering a tag twice is a
// structural error.
func (r *Registry) Register(tag pathspec.Tag, newPathSpec pathspec.Constructor, newFileSystem FileSystemConstructor, credentials ...vfs.CredentialKind) error {
	if tag == "" {
		return fserr.Argumentf("registering backend: empty type tag")
	}
	if newPathSpec == nil || newFileSystem == nil {
		return fserr.Argumentf("registering backend %s: nil constructor", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tag]; exists {
		return fserr.Structuralf("backend type %s is already registered", tag)
	}
	r.entries[tag] = Entry{
		Tag:           tag,
		NewPathSpec:   newPathSpec,
		NewFileSystem: newFileSystem,
		Credentials:   slices.Clone(credentials),
	}
	return nil
}

// RegisterType registers a backend whose path specs are built by typ.
func (r *Registry) RegisterType(typ *pathspec.Type, newFileSystem FileSystemConstructor, credentials ...vfs.CredentialKind) error {
	return r.Register(typ.Tag, typ.New, newFileSystem, credentials...)
}

// Unregister removes a backend type. Unregistering an unknown tag is
// a structural error.
func (r *Registry) Unregister(tag pathspec.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tag]; !exists {
		return fserr.Structuralf("backend type %s is not registered", tag)
	}
	delete(r.entries, tag)
	return nil
}

// Lookup returns the entry for tag, or a structural error naming the
// unknown type.
func (r *Registry) Lookup(tag pathspec.Tag) (Entry, error) {
	r.mu.RLock()
	entry, ok := r.entries[tag]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, fserr.Structuralf("unsupported backend type %s", tag)
	}
	return entry, nil
}

// NewPathSpec builds a node of the given type.
func (r *Registry) NewPathSpec(tag pathspec.Tag, attributes pathspec.Attributes, parent *pathspec.PathSpec) (*pathspec.PathSpec, error) {
	entry, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	return entry.NewPathSpec(attributes, parent)
}

// PathSpecConstructor adapts the registry for pathspec.FromElements.
func (r *Registry) PathSpecConstructor(tag pathspec.Tag) (pathspec.Constructor, error) {
	entry, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	return entry.NewPathSpec, nil
}

// SupportsCredential reports whether backends of type tag accept
// credentials of the given kind.
func (r *Registry) SupportsCredential(tag pathspec.Tag, kind vfs.CredentialKind) bool {
	entry, err := r.Lookup(tag)
	if err != nil {
		return false
	}
	return slices.Contains(entry.Credentials, kind)
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []pathspec.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]pathspec.Tag, 0, len(r.entries))
	for tag := range r.entries {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
