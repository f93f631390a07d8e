// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand() *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(args []string) error {
			return runVersion(params, os.Stdout)
		},
	}
}

func runVersion(params versionParams, stdout io.Writer) error {
	if done, err := params.EmitJSON(stdout, version.Current()); done {
		return err
	}
	_, err := fmt.Fprintf(stdout, "strata %s\n", version.Full())
	return err
}
