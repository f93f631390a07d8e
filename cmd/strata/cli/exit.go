// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/strata/lib/fserr"
)

// Exit codes. A resolution failure exits with the code of its error
// kind so scripts can tell a wrong passphrase from a corrupt image.
const (
	ExitFailure    = 1
	ExitArgument   = 2
	ExitAccess     = 3
	ExitStructural = 4
	ExitIO         = 5
)

// ExitError carries an exit code for an outcome the command already
// reported on stdout: "strata exists" for a missing entry and
// "strata digest --verify" for a mismatch both return Code 1.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCodeFor returns the process exit code for err: the code of an
// ExitError, the code of the first error kind in the chain, or
// ExitFailure.
func ExitCodeFor(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	kind, ok := fserr.KindOf(err)
	if !ok {
		return ExitFailure
	}
	switch kind {
	case fserr.KindArgument:
		return ExitArgument
	case fserr.KindAccess:
		return ExitAccess
	case fserr.KindStructural:
		return ExitStructural
	case fserr.KindIO:
		return ExitIO
	}
	return ExitFailure
}

// Hint returns a line of advice for err, or "".
func Hint(err error) string {
	switch {
	case fserr.Is(err, fserr.KindAccess):
		return "hint: add the layer's credential to the chain file's credentials list (env or file source)"
	case fserr.Is(err, fserr.KindStructural):
		return "hint: check each layer's parent with 'strata inspect --chain FILE'"
	}
	return ""
}
