// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fserr defines the error taxonomy shared by path
// specifications, the resolver, and every storage backend.
//
// Every failure a backend reports while resolving a chain falls into
// one of four kinds:
//
//   - [KindStructural]: the chain itself is malformed (missing or
//     forbidden parent, unknown type tag).
//   - [KindAccess]: credentials are absent or wrong.
//   - [KindIO]: the underlying medium failed, or the addressed entry
//     does not exist.
//   - [KindArgument]: a caller-supplied value is invalid (bad row
//     index, unknown attribute, malformed identifier).
//
// Errors carry their kind in an [*Error] anywhere in the wrap chain,
// so fmt.Errorf("...: %w", err) preserves classification. [KindOf]
// recovers it with errors.As.
package fserr
