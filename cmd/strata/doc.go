// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Strata resolves layered path spec chains from the command line.
//
// A chain file describes a stack of backends, root first: a host file,
// the age volume inside it, the SQLite database inside that, a row of
// that database. Strata opens the stack through one resolver and reads,
// lists, digests, or mounts what the innermost layer addresses.
//
// Usage:
//
//	strata <command> [flags]
//
// Commands:
//
//	cat       Write the resolved object to stdout
//	ls        List the resolved entry and its sub entries
//	inspect   Render a chain, its identity, and its canonical key
//	exists    Exit 0 if the chain resolves, 1 otherwise
//	digest    BLAKE3 digest of the resolved object
//	seal      Create an age volume
//	mount     Mount the resolved entry read-only with FUSE
//	version   Print version information
//
// Configuration is read from --config or $STRATA_CONFIG; without
// either, built-in defaults apply.
package main
