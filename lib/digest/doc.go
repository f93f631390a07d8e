// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes BLAKE3-256 content digests of resolved
// objects and host files.
//
// The API surface:
//
//   - [Reader] -- streams a reader through BLAKE3 with constant memory
//   - [Object] -- digests a FileObject from offset zero, independent
//     of its current seek position
//   - [File] -- digests a host file
//   - [Digest.String] / [Parse] -- canonical hex form, used by the
//     digest command and in log output
//
// Path-spec identities use the same hash over a different input (the
// CBOR encoding of the chain) and live in lib/pathspec.
package digest
