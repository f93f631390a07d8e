// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed creates and unlocks age-encrypted volumes. It wraps
// filippo.io/age for the operations strata needs: generate x25519
// keypairs, seal a volume to a passphrase or to public-key recipients,
// and turn a credential held in a [secret.Buffer] into age identities.
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair in a secret.Buffer
//   - [Seal] -- write an age volume from plaintext
//   - [PassphraseIdentity] / [ParseIdentities] -- credential to identity
//   - [ParseRecipient] -- public key validation
//   - [IsIncorrectCredential] -- classify unlock failures
//
// Used by the AGE backend (unlock volumes) and the seal command
// (create them).
//
// Depends on lib/secret for secure memory allocation.
package sealed
