// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathspec

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/strata/lib/codec"
)

// Key is a BLAKE3-256 hash identifying a chain. Keys are comparable
// and used directly as map keys by the resolver cache and the key
// chain.
type Key [32]byte

// String returns the full hex encoding.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Short returns the first 12 hex characters, for logs.
func (k Key) Short() string {
	return hex.EncodeToString(k[:6])
}

// Identity hashes the whole chain, addresses included. Two chains
// have equal identities exactly when Equal reports them equal.
func (p *PathSpec) Identity() Key {
	return hashElements(p.elements(false))
}

// CanonicalKey hashes the chain with this node's address removed.
// Parent nodes keep their addresses: the parent address chooses which
// bytes the backend wraps, so it is part of the backend's identity.
func (p *PathSpec) CanonicalKey() Key {
	return hashElements(p.elements(true))
}

func hashElements(elements []Element) Key {
	data, err := codec.Marshal(elements)
	if err != nil {
		// Attributes are validated to strings, int64s, floats, and
		// bools at construction, all of which encode.
		panic("pathspec: encoding chain for hashing: " + err.Error())
	}
	return Key(blake3.Sum256(data))
}
