// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides strata's standard CBOR encoding configuration.
//
// strata serializes path-specification chains in two formats:
//
//   - JSON for external interfaces: chain files, CLI --json output.
//   - CBOR for identity hashing and compact chain serialization
//     (pathspec.Marshal, pathspec.Key).
//
// Chain identity is a hash over the encoded bytes, so the encoder must
// be deterministic. It uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical chain always produces
// identical bytes, and therefore the same key.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// Types that appear in both JSON and CBOR (pathspec.Element) carry
// only `json` tags. fxamacker/cbor v2 reads `json` tags as fallback
// when `cbor` tags are absent, so one tag controls field naming and
// omitempty for both formats. Purely internal types use `cbor` tags.
// Never use both on the same field.
package codec
