// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
)

// negative lists, for every error kind, whether a resolution failure
// of that kind means "does not exist".
var negative = [...]bool{
	fserr.KindStructural: true,
	fserr.KindAccess:     true,
	fserr.KindIO:         true,
	fserr.KindArgument:   true,
}

// Adding an fserr kind without extending negative fails here.
var _ = [1]struct{}{}[len(negative)-int(fserr.NumKinds)]

// FileEntryExistsByPathSpec reports whether spec resolves. It opens
// the entry and, for non-directories, its content. Any failure of one
// of the four fserr kinds is a negative answer; any other error is a
// defect and is returned.
func (r *Resolver) FileEntryExistsByPathSpec(spec *pathspec.PathSpec) (bool, error) {
	entry, err := r.OpenFileEntry(spec)
	if err != nil {
		return existence(err)
	}
	defer entry.Close()

	if entry.IsDirectory() {
		return true, nil
	}
	object, err := entry.Open()
	if err != nil {
		return existence(err)
	}
	if err := object.Close(); err != nil {
		return existence(err)
	}
	return true, nil
}

func existence(err error) (bool, error) {
	if kind, ok := fserr.KindOf(err); ok && int(kind) < len(negative) && negative[kind] {
		return false, nil
	}
	return false, err
}
