// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs defines the contract every storage backend implements
// and the helpers backends share.
//
// A [FileSystem] is bound to one opened backend resource: an OS
// directory tree, an unlocked age volume, one table of a SQLite
// database. The resolver constructs it, calls Open exactly once, and
// owns it until its reference count drops to zero, when it calls
// Close. A FileSystem that failed to open, or was closed, is never
// reused.
//
// A [FileEntry] addresses one unit inside a FileSystem. Entries are
// cheap values created per request; they own no backend resource.
// A [FileObject] is a readable, seekable byte view of an entry.
//
// Backends that wrap a parent layer obtain its bytes through
// [Environment].Resolver, which is how chains of any depth resolve
// without a backend knowing what lies beneath it.
package vfs
