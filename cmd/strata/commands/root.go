// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the strata CLI command tree.
package commands

import (
	"github.com/bureau-foundation/strata/cmd/strata/cli"
)

// Root builds and returns the complete strata CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "strata",
		Description: `Strata: layered virtual filesystem resolver.

Resolve a chain of storage layers (a host file, the encrypted volume
inside it, the database inside that, one row of the database) and read,
list, digest, or mount the innermost layer.`,
		Subcommands: []*cli.Command{
			catCommand(),
			lsCommand(),
			inspectCommand(),
			existsCommand(),
			digestCommand(),
			sealCommand(),
			mountCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Read one row out of an encrypted SQLite database",
				Command:     "VAULT_PASSWORD=... strata cat --chain vault.yaml",
			},
			{
				Description: "Check whether a chain resolves",
				Command:     "strata exists --chain vault.yaml && echo present",
			},
		},
	}
}
