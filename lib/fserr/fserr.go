// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fserr

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a resolution failure.
type Kind uint8

const (
	KindStructural Kind = iota + 1
	KindAccess
	KindIO
	KindArgument

	// NumKinds is one past the last kind. Tables indexed by Kind use
	// it to fail compilation when a kind is added without an entry.
	NumKinds
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindAccess:
		return "access"
	case KindIO:
		return "io"
	case KindArgument:
		return "argument"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is a classified error. Op names the operation that failed
// ("open SQLITE_BLOB", "row_index") and may be empty.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String() + " error: " + e.Err.Error()
	}
	return e.Kind.String() + " error: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args []any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Structuralf returns a KindStructural error. The format supports %w.
func Structuralf(format string, args ...any) error {
	return newf(KindStructural, format, args)
}

// Accessf returns a KindAccess error. The format supports %w.
func Accessf(format string, args ...any) error {
	return newf(KindAccess, format, args)
}

// IOf returns a KindIO error. The format supports %w.
func IOf(format string, args ...any) error {
	return newf(KindIO, format, args)
}

// Argumentf returns a KindArgument error. The format supports %w.
func Argumentf(format string, args ...any) error {
	return newf(KindArgument, format, args)
}

// Wrap classifies err as kind under the operation name op. Wrap(kind,
// op, nil) returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotFound reports that the named entry does not exist. The result is
// a KindIO error for which errors.Is(err, fs.ErrNotExist) holds.
func NotFound(name string) error {
	return &Error{Kind: KindIO, Op: name, Err: fs.ErrNotExist}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	found, ok := KindOf(err)
	return ok && found == kind
}
