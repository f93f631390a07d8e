// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encryptedstream

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/secret"
)

// BlobVersion is the first byte of every encrypted stream. It is part
// of the AAD, so altering it fails authentication.
const BlobVersion byte = 0x01

// BlobOverhead is the size of an encrypted stream with an empty
// plaintext: 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (tag).
const BlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// HKDF info and AAD domain strings. Changing either invalidates every
// stream sealed under it.
var (
	hkdfInfoStreamKey = []byte("strata.encrypted_stream.key.v1")
	aadDomain         = []byte("strata.encrypted_stream.v1")
)

// errAuthentication marks an AEAD failure: wrong key or tampered data.
var errAuthentication = fmt.Errorf("authentication failed (wrong key or tampered data)")

// deriveKey stretches arbitrary key_data into a 32-byte stream key.
func deriveKey(keyData []byte) (*secret.Buffer, error) {
	reader := hkdf.New(sha256.New, keyData, nil, hkdfInfoStreamKey)
	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	return secret.NewFromBytes(derived)
}

func buildAAD(version byte) []byte {
	aad := make([]byte, 1+len(aadDomain))
	aad[0] = version
	copy(aad[1:], aadDomain)
	return aad
}

// Seal encrypts plaintext under keyData in the format ENCRYPTED_STREAM
// reads:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// keyData is borrowed and not closed.
func Seal(plaintext []byte, keyData *secret.Buffer) ([]byte, error) {
	key, err := deriveKey(keyData.Bytes())
	if err != nil {
		return nil, err
	}
	defer key.Close()

	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}
	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	output := make([]byte, 1+len(nonce), BlobOverhead+len(plaintext))
	output[0] = BlobVersion
	copy(output[1:], nonce[:])
	return aead.Seal(output, nonce[:], plaintext, buildAAD(BlobVersion)), nil
}

// unseal authenticates and decrypts a sealed stream. A malformed blob is
// an IO error; a failed authentication is an Access error, since the
// likely cause is the wrong key_data.
func unseal(blob []byte, keyData *secret.Buffer) ([]byte, error) {
	if len(blob) < BlobOverhead {
		return nil, fserr.IOf("encrypted stream is %d bytes, minimum is %d", len(blob), BlobOverhead)
	}
	if version := blob[0]; version != BlobVersion {
		return nil, fserr.IOf("encrypted stream version %d is not supported (expected %d)", version, BlobVersion)
	}

	key, err := deriveKey(keyData.Bytes())
	if err != nil {
		return nil, fserr.IOf("%w", err)
	}
	defer key.Close()
	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fserr.IOf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := blob[1+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, buildAAD(blob[0]))
	if err != nil {
		return nil, fserr.Wrap(fserr.KindAccess, "decrypting stream", errAuthentication)
	}
	return plaintext, nil
}
