// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/strata/lib/vfs"
)

// Size is the digest length in bytes.
const Size = 32

// Digest is a BLAKE3-256 digest.
type Digest [Size]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Reader digests everything read from r.
func Reader(r io.Reader) (Digest, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, err
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// Object digests the full contents of object. It reads through
// ReadAt, so the object's seek position is left unchanged.
func Object(object vfs.FileObject) (Digest, error) {
	digest, err := Reader(io.NewSectionReader(object, 0, object.Size()))
	if err != nil {
		return Digest{}, fmt.Errorf("hashing object: %w", err)
	}
	return digest, nil
}

// File digests the host file at path.
func File(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	digest, err := Reader(file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return digest, nil
}

// Parse parses a hex-encoded digest. It fails unless the string is
// exactly 64 hex characters.
func Parse(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != Size {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), Size)
	}
	copy(digest[:], decoded)
	return digest, nil
}
