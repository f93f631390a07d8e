// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/strata/lib/secret"
)

// ReadPassword prompts on stderr and reads a passphrase from the
// terminal without echo. When confirm is set the passphrase is read a
// second time and must match.
func ReadPassword(prompt string, confirm bool) (*secret.Buffer, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal; use --passphrase-file")
	}

	first, err := readHidden(fd, prompt)
	if err != nil {
		return nil, err
	}
	if !confirm {
		return bufferFrom(first)
	}

	second, err := readHidden(fd, "Confirm: ")
	if err != nil {
		secret.Zero(first)
		return nil, err
	}
	match := bytes.Equal(first, second)
	secret.Zero(second)
	if !match {
		secret.Zero(first)
		return nil, fmt.Errorf("passphrases do not match")
	}
	return bufferFrom(first)
}

func readHidden(fd int, prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return value, nil
}

func bufferFrom(value []byte) (*secret.Buffer, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}
	return secret.NewFromBytes(value)
}
