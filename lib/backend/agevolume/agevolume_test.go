// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agevolume

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/strata/lib/backend/backendtest"
	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/sealed"
	"github.com/bureau-foundation/strata/lib/secret"
	"github.com/bureau-foundation/strata/lib/vfs"
)

const passphrase = "correct horse battery staple"

func register(reg *registry.Registry) error {
	return reg.RegisterType(Type, New, Credentials...)
}

func sealPassphrase(t *testing.T, plaintext []byte) []byte {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(passphrase))
	if err != nil {
		t.Fatalf("secret.NewFromBytes: %v", err)
	}
	defer buffer.Close()
	ciphertext, err := sealed.SealBytes(plaintext, sealed.SealOptions{Passphrase: buffer, WorkFactor: 10})
	if err != nil {
		t.Fatalf("SealBytes: %v", err)
	}
	return ciphertext
}

func TestRequiresParent(t *testing.T) {
	if _, err := Type.New(nil, nil); !fserr.Is(err, fserr.KindStructural) {
		t.Errorf("AGE without parent: err = %v, want structural", err)
	}

	// A backend handed a parentless spec directly still refuses it.
	orphan, err := (&pathspec.Type{Tag: Type.Tag}).New(nil, nil)
	if err != nil {
		t.Fatalf("building orphan spec: %v", err)
	}
	if err := New(vfs.Environment{}).Open(orphan, nil); !fserr.Is(err, fserr.KindStructural) {
		t.Errorf("Open(orphan) = %v, want structural", err)
	}
}

func TestUnlockWithPassphrase(t *testing.T) {
	harness := backendtest.New(t, register)
	plaintext := bytes.Repeat([]byte("strata volume "), 10_000)
	parent := harness.File(t, "/images/vault.age", sealPassphrase(t, plaintext))
	spec := harness.Spec(t, Type.Tag, nil, parent)

	if err := harness.KeyChain.SetCredential(spec, vfs.CredentialPassword, []byte(passphrase)); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}

	entry, err := harness.Resolver.OpenFileEntry(spec)
	if err != nil {
		t.Fatalf("OpenFileEntry: %v", err)
	}
	defer entry.Close()
	if !entry.IsRoot() || !entry.IsVirtual() || entry.IsDirectory() {
		t.Errorf("entry root=%t virtual=%t directory=%t", entry.IsRoot(), entry.IsVirtual(), entry.IsDirectory())
	}
	if size, _ := entry.Size(); size != int64(len(plaintext)) {
		t.Errorf("Size() = %d, want %d", size, len(plaintext))
	}

	if got := harness.ReadObject(t, spec); !bytes.Equal(got, plaintext) {
		t.Error("decrypted contents differ from plaintext")
	}

	object, err := harness.Resolver.OpenFileObject(spec)
	if err != nil {
		t.Fatalf("OpenFileObject: %v", err)
	}
	defer object.Close()
	window := make([]byte, 6)
	if _, err := object.ReadAt(window, 140_000-14); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(window) != "strata" {
		t.Errorf("ReadAt near end = %q", window)
	}
}

func TestUnlockWithIdentity(t *testing.T) {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()
	ciphertext, err := sealed.SealBytes([]byte("identity sealed"), sealed.SealOptions{Recipients: []string{keypair.PublicKey}})
	if err != nil {
		t.Fatalf("SealBytes: %v", err)
	}

	harness := backendtest.New(t, register)
	spec := harness.Spec(t, Type.Tag, nil, harness.File(t, "/key.age", ciphertext))
	if err := harness.KeyChain.SetCredential(spec, vfs.CredentialIdentity, []byte(keypair.PrivateKey.String())); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	if got := harness.ReadObject(t, spec); string(got) != "identity sealed" {
		t.Errorf("contents = %q", got)
	}
}

func TestAccessFailures(t *testing.T) {
	tests := []struct {
		name       string
		credential string
	}{
		{"missing", ""},
		{"wrong", "Tr0ub4dor&3"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			harness := backendtest.New(t, register)
			spec := harness.Spec(t, Type.Tag, nil, harness.File(t, "/vault.age", sealPassphrase(t, []byte("x"))))
			if test.credential != "" {
				harness.KeyChain.SetCredential(spec, vfs.CredentialPassword, []byte(test.credential))
			}

			_, err := harness.Resolver.OpenFileSystem(spec)
			if !fserr.Is(err, fserr.KindAccess) {
				t.Fatalf("OpenFileSystem = %v, want access error", err)
			}
			// The parent opened to try the credential is released again.
			if harness.Resolver.Len() != 0 {
				t.Errorf("cache holds %d file systems after failed unlock", harness.Resolver.Len())
			}
		})
	}
}

func TestCorruptVolume(t *testing.T) {
	harness := backendtest.New(t, register)
	spec := harness.Spec(t, Type.Tag, nil, harness.File(t, "/junk.age", []byte("this is not an age file")))
	harness.KeyChain.SetCredential(spec, vfs.CredentialPassword, []byte(passphrase))

	if _, err := harness.Resolver.OpenFileSystem(spec); !fserr.Is(err, fserr.KindIO) {
		t.Errorf("OpenFileSystem = %v, want io error", err)
	}
	if harness.Resolver.Len() != 0 {
		t.Errorf("cache holds %d file systems after failed open", harness.Resolver.Len())
	}
}

func TestSubEntryRejected(t *testing.T) {
	harness := backendtest.New(t, register)
	spec := harness.Spec(t, Type.Tag, nil, harness.File(t, "/vault.age", sealPassphrase(t, []byte("x"))))
	harness.KeyChain.SetCredential(spec, vfs.CredentialPassword, []byte(passphrase))

	fileSystem, err := harness.Resolver.OpenFileSystem(spec)
	if err != nil {
		t.Fatalf("OpenFileSystem: %v", err)
	}
	defer harness.Resolver.CloseFileSystem(spec)

	if _, err := fileSystem.FileEntryByPathSpec(spec.WithAddress(pathspec.Location("/inner"))); !fserr.Is(err, fserr.KindArgument) {
		t.Errorf("FileEntryByPathSpec(location) = %v, want argument error", err)
	}
}
