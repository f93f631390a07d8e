// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/secret"
)

func TestStateLifecycle(t *testing.T) {
	var state State

	if err := state.Check(); !fserr.Is(err, fserr.KindIO) {
		t.Errorf("Check before open: err = %v, want io error", err)
	}
	if err := state.BeginClose(); err == nil {
		t.Error("BeginClose before open should fail")
	}
	if err := state.BeginOpen(); err != nil {
		t.Fatalf("BeginOpen: %v", err)
	}
	state.Opened()
	if err := state.Check(); err != nil {
		t.Errorf("Check while open: %v", err)
	}
	if err := state.BeginOpen(); err == nil {
		t.Error("BeginOpen while open should fail")
	}
	if err := state.BeginClose(); err != nil {
		t.Fatalf("BeginClose: %v", err)
	}
	if err := state.BeginClose(); err == nil {
		t.Error("second BeginClose should fail")
	}
	if err := state.BeginOpen(); err == nil {
		t.Error("reopening a closed file system should fail")
	}
}

func TestCredentials(t *testing.T) {
	credentials := NewCredentials()
	buffer, err := secret.NewFromBytes([]byte("hunter2"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	credentials.Set(CredentialPassword, buffer)

	if !credentials.Has(CredentialPassword) || credentials.Has(CredentialKeyData) {
		t.Errorf("Has: kinds = %v", credentials.Kinds())
	}
	got, ok := credentials.Get(CredentialPassword)
	if !ok || got.String() != "hunter2" {
		t.Errorf("Get(password) = %v, %t", got, ok)
	}

	replacement, err := secret.NewFromBytes([]byte("hunter3"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	credentials.Set(CredentialPassword, replacement)
	if credentials.Len() != 1 {
		t.Errorf("Len after replace = %d, want 1", credentials.Len())
	}

	if err := credentials.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if credentials.Len() != 0 {
		t.Errorf("Len after Close = %d", credentials.Len())
	}
	if replacement.Equal([]byte("hunter3")) {
		t.Error("Close did not close the stored buffer")
	}
}

func TestNilCredentials(t *testing.T) {
	var credentials *Credentials
	if credentials.Has(CredentialPassword) || credentials.Len() != 0 || credentials.Kinds() != nil {
		t.Error("nil credentials should behave as an empty set")
	}
	if err := credentials.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestParseCredentialKind(t *testing.T) {
	for _, name := range []string{"password", "recovery_password", "key_data", "identity"} {
		if _, err := ParseCredentialKind(name); err != nil {
			t.Errorf("ParseCredentialKind(%q): %v", name, err)
		}
	}
	if _, err := ParseCredentialKind("pin"); !fserr.Is(err, fserr.KindArgument) {
		t.Errorf("ParseCredentialKind(pin): err = %v, want argument error", err)
	}
}

type closeCounter struct{ closes int }

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestReaderAtObject(t *testing.T) {
	counter := &closeCounter{}
	object := NewReaderAtObject(strings.NewReader("layered bytes"), 13, counter)

	if object.Size() != 13 {
		t.Errorf("Size() = %d, want 13", object.Size())
	}
	if _, err := object.Seek(8, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	rest, err := io.ReadAll(object)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != "bytes" {
		t.Errorf("read after seek = %q, want bytes", rest)
	}

	buffer := make([]byte, 7)
	if _, err := object.ReadAt(buffer, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buffer) != "layered" {
		t.Errorf("ReadAt(0) = %q", buffer)
	}

	object.Close()
	object.Close()
	if counter.closes != 1 {
		t.Errorf("closer called %d times, want 1", counter.closes)
	}
	if _, err := object.Read(buffer); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Read after Close: err = %v, want fs.ErrClosed", err)
	}
}

func TestReadAll(t *testing.T) {
	object := NewBytesObject([]byte("0123456789"))
	object.Seek(5, io.SeekStart)

	data, err := ReadAll(object, 10)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "0123456789" {
		t.Errorf("ReadAll = %q, want full content regardless of offset", data)
	}

	if _, err := ReadAll(object, 9); !fserr.Is(err, fserr.KindIO) {
		t.Errorf("ReadAll over limit: err = %v, want io error", err)
	}
}

func TestReadAllLimited(t *testing.T) {
	if data, err := ReadAllLimited(strings.NewReader("abcd"), 4); err != nil || string(data) != "abcd" {
		t.Errorf("ReadAllLimited at limit = %q, %v", data, err)
	}
	if _, err := ReadAllLimited(strings.NewReader("abcde"), 4); !fserr.Is(err, fserr.KindIO) {
		t.Errorf("ReadAllLimited over limit: err = %v, want io error", err)
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	var environment Environment
	if environment.BufferLimit() != DefaultMaxBufferSize {
		t.Errorf("BufferLimit() = %d", environment.BufferLimit())
	}
	if environment.Log() == nil {
		t.Error("Log() returned nil")
	}
}
