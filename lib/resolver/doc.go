// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver turns path-specification chains into open backend
// resources. It is the single entry point callers use.
//
// The resolver keeps a reference-counted cache of open FileSystems
// keyed by pathspec.CanonicalKey. A cache miss looks up the backend in
// the registry, constructs it, extracts credentials from the key
// chain, and opens it; the backend may recursively ask the resolver
// for its parent layer's bytes. A hit increments the reference count
// without touching the backend.
//
// Each cache entry has its own lock, held across the whole backend
// open, so two callers opening the same chain never open the backend
// twice while callers opening different chains proceed in parallel.
// Entry locks are always taken child before ancestor (a backend holds
// its own entry while opening its parent), and chains are acyclic, so
// nested opens cannot deadlock.
//
// Every successful Open* call must be balanced: close the returned
// FileEntry or FileObject, or call CloseFileSystem with the same spec.
// When the count reaches zero the backend is closed and evicted.
package resolver
