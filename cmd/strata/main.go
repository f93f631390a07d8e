// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command strata resolves layered path-spec chains: it reads, lists,
// hashes and mounts files nested inside images, volumes and streams.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/cmd/strata/commands"
)

func main() {
	err := commands.Root().Execute(os.Args[1:])
	if err == nil {
		return
	}
	// exists and digest --verify have already printed their outcome.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "strata: %v\n", err)
		if hint := cli.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
	}
	os.Exit(cli.ExitCodeFor(err))
}
