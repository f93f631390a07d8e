// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package builtin registers every backend that ships with strata.
// Registration is explicit and ordered; nothing registers itself from
// init.
package builtin

import (
	"fmt"

	"github.com/bureau-foundation/strata/lib/backend/agevolume"
	"github.com/bureau-foundation/strata/lib/backend/compressedstream"
	"github.com/bureau-foundation/strata/lib/backend/datarange"
	"github.com/bureau-foundation/strata/lib/backend/encryptedstream"
	"github.com/bureau-foundation/strata/lib/backend/fake"
	"github.com/bureau-foundation/strata/lib/backend/osfs"
	"github.com/bureau-foundation/strata/lib/backend/sqliteblob"
	"github.com/bureau-foundation/strata/lib/registry"
)

// Options configures the builtin backends.
type Options struct {
	// SQLitePoolSize is the connection pool size of each open
	// SQLITE_BLOB database.
	SQLitePoolSize int

	// FakeStore, when set, registers the in-memory FAKE backend
	// serving it.
	FakeStore *fake.Store
}

type step struct {
	name     string
	register func() error
}

// Register adds the builtin backends to reg in a fixed order.
func Register(reg *registry.Registry, options Options) error {
	steps := []step{
		{"OS", func() error { return reg.RegisterType(osfs.Type, osfs.New) }},
		{"DATA_RANGE", func() error { return datarange.Register(reg) }},
		{"COMPRESSED_STREAM", func() error { return compressedstream.Register(reg) }},
		{"ENCRYPTED_STREAM", func() error { return encryptedstream.Register(reg) }},
		{"AGE", func() error { return reg.RegisterType(agevolume.Type, agevolume.New, agevolume.Credentials...) }},
		{"SQLITE_BLOB", func() error {
			return sqliteblob.Register(reg, sqliteblob.Options{PoolSize: options.SQLitePoolSize})
		}},
	}
	if options.FakeStore != nil {
		store := options.FakeStore
		steps = append(steps, step{"FAKE", func() error { return reg.RegisterType(fake.Type, fake.Constructor(store)) }})
	}

	for _, step := range steps {
		if err := step.register(); err != nil {
			return fmt.Errorf("registering %s backend: %w", step.name, err)
		}
	}
	return nil
}
