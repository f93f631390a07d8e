// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathspec implements path-specification chains: the
// immutable addressing values that describe a resource nested inside
// any number of storage layers.
//
// A chain is built outer-to-inner. The outermost node (an OS file, an
// in-memory FAKE store) has no parent; every other node wraps the byte
// view of its parent:
//
//	file, _ := osType.New(pathspec.Attributes{"location": "/images/vault.age"}, nil)
//	volume, _ := ageType.New(nil, file)
//	row, _ := blobType.New(pathspec.Attributes{
//		"table_name": "blobs", "column_name": "data", "row_index": 3,
//	}, volume)
//
// Each node has a [Tag] selecting its backend, identity fields that
// select a backend instance (table and column names, compression
// method), and at most one [Address] selecting content inside that
// instance. The address is a tagged variant: nil for the root,
// [Location], [RowIndex], or [RowCondition].
//
// [PathSpec.Identity] hashes the whole chain. [PathSpec.CanonicalKey]
// hashes the chain with the node's own address removed: every row of
// one table, or every file of one directory tree, shares a canonical
// key and therefore one open backend. Both are BLAKE3-256 over the
// deterministic CBOR encoding of [PathSpec.Elements].
package pathspec
