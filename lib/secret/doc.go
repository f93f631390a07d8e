// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credential material (volume passphrases, age
// identities, stream keys) outside the Go heap.
//
// [Buffer] memory comes from an anonymous mmap region that is mlock'd
// and marked MADV_DONTDUMP. Close zeroes, unlocks, and unmaps it. The
// garbage collector never sees the region, so it cannot leave stray
// copies of a passphrase behind after the key chain forgets it.
//
// Constructors:
//
//   - [New]: zero-filled buffer of a given size
//   - [NewFromBytes]: copies into protected memory, zeroes the source
//   - [ReadFromPath]: file or stdin, whitespace trimmed
//   - [ReadFromEnv]: environment variable, used by chain files
//
// [Buffer.Clone] produces an independent buffer; the key chain hands
// clones to backends so that a backend closing its credentials never
// invalidates the stored copy.
package secret
