// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the strata CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a flag source, and a Run
// function. Flags come either from a [pflag.FlagSet] factory or from a
// tagged parameter struct bound by [BindFlags]. Commands are assembled
// into a tree in cmd/strata/commands and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing,
// and structured help output with examples.
//
// An unknown subcommand or flag gets a suggestion: a known alias
// ("hash" for digest, "--path" for --chain) or the closest name within
// edit distance 3.
//
// Commands that report a non-zero outcome without an error message
// (strata exists) return an [ExitError]. Other errors exit with the
// code of their resolution error kind; see [ExitCodeFor].
package cli
