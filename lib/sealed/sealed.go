// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"

	"github.com/bureau-foundation/strata/lib/secret"
)

// DefaultWorkFactor is the scrypt work factor (log2 N) used when
// sealing to a passphrase. Tests lower it to keep key derivation fast.
const DefaultWorkFactor = 18

// Keypair holds an age x25519 keypair. The private key is stored in a
// secret.Buffer (mmap-backed, locked against swap, excluded from core
// dumps). The public key is a plain string.
//
// The caller must call Close when the keypair is no longer needed.
type Keypair struct {
	// PrivateKey is the identity in AGE-SECRET-KEY-1... format.
	PrivateKey *secret.Buffer

	// PublicKey is the corresponding recipient in age1... format.
	PublicKey string
}

// Close releases the private key memory. Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}

	// The identity string stays on the heap until GC; the mmap buffer is
	// the durable copy.
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// SealOptions selects who can open a sealed volume. Exactly one of
// Passphrase and Recipients must be set: age does not allow a
// passphrase stanza alongside other recipients.
type SealOptions struct {
	// Passphrase is borrowed and not closed.
	Passphrase *secret.Buffer

	// Recipients are age public keys (age1...).
	Recipients []string

	// WorkFactor overrides DefaultWorkFactor for passphrase volumes.
	WorkFactor int
}

// Seal encrypts everything read from src into an age volume written to
// dst.
func Seal(dst io.Writer, src io.Reader, options SealOptions) error {
	recipients, err := options.recipients()
	if err != nil {
		return err
	}
	writer, err := age.Encrypt(dst, recipients...)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.Copy(writer, src); err != nil {
		return fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}
	return nil
}

// SealBytes is Seal over an in-memory plaintext.
func SealBytes(plaintext []byte, options SealOptions) ([]byte, error) {
	var ciphertext bytes.Buffer
	if err := Seal(&ciphertext, bytes.NewReader(plaintext), options); err != nil {
		return nil, err
	}
	return ciphertext.Bytes(), nil
}

func (o SealOptions) recipients() ([]age.Recipient, error) {
	switch {
	case o.Passphrase != nil && len(o.Recipients) > 0:
		return nil, errors.New("a passphrase volume cannot also have public-key recipients")
	case o.Passphrase != nil:
		if o.Passphrase.Len() == 0 {
			return nil, errors.New("passphrase is empty")
		}
		recipient, err := age.NewScryptRecipient(o.Passphrase.String())
		if err != nil {
			return nil, fmt.Errorf("creating passphrase recipient: %w", err)
		}
		workFactor := o.WorkFactor
		if workFactor == 0 {
			workFactor = DefaultWorkFactor
		}
		recipient.SetWorkFactor(workFactor)
		return []age.Recipient{recipient}, nil
	case len(o.Recipients) > 0:
		recipients := make([]age.Recipient, 0, len(o.Recipients))
		for _, key := range o.Recipients {
			recipient, err := ParseRecipient(key)
			if err != nil {
				return nil, err
			}
			recipients = append(recipients, recipient)
		}
		return recipients, nil
	default:
		return nil, errors.New("a passphrase or at least one recipient is required")
	}
}

// ParseRecipient parses an age public key.
func ParseRecipient(publicKey string) (age.Recipient, error) {
	recipient, err := age.ParseX25519Recipient(strings.TrimSpace(publicKey))
	if err != nil {
		return nil, fmt.Errorf("invalid age public key: %w", err)
	}
	return recipient, nil
}

// PassphraseIdentity returns the scrypt identity for a passphrase. The
// buffer is borrowed and not closed.
func PassphraseIdentity(passphrase *secret.Buffer) (age.Identity, error) {
	if passphrase == nil || passphrase.Len() == 0 {
		return nil, errors.New("passphrase is empty")
	}
	identity, err := age.NewScryptIdentity(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("creating passphrase identity: %w", err)
	}
	return identity, nil
}

// ParseIdentities parses an identity file held in a secret.Buffer: one
// AGE-SECRET-KEY-1... per line, with "#" comments and blank lines
// ignored. The buffer is borrowed and not closed.
func ParseIdentities(identityFile *secret.Buffer) ([]age.Identity, error) {
	if identityFile == nil || identityFile.Len() == 0 {
		return nil, errors.New("identity file is empty")
	}
	identities, err := age.ParseIdentities(bytes.NewReader(identityFile.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	return identities, nil
}

// IsIncorrectCredential reports whether err means the supplied
// identities cannot unlock the volume, as opposed to a damaged or
// unreadable volume.
func IsIncorrectCredential(err error) bool {
	var noMatch *age.NoIdentityMatchError
	return errors.As(err, &noMatch) || errors.Is(err, age.ErrIncorrectIdentity)
}
