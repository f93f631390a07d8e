// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance bounds how far a typo may be from a real name.
const maxSuggestDistance = 3

// commandAliases maps verbs people reach for when working with images
// and volumes onto the strata command that does the job.
var commandAliases = map[string]string{
	"read":     "cat",
	"extract":  "cat",
	"list":     "ls",
	"dir":      "ls",
	"hash":     "digest",
	"sum":      "digest",
	"checksum": "digest",
	"encrypt":  "seal",
	"stat":     "exists",
	"test":     "exists",
	"describe": "inspect",
	"show":     "inspect",
	"fuse":     "mount",
}

// flagAliases maps flag names from other tools onto strata's. An alias
// only applies when the command defines the target flag.
var flagAliases = map[string]string{
	"file":       "chain",
	"path":       "chain",
	"spec":       "chain",
	"image":      "chain",
	"target":     "mountpoint",
	"dir":        "mountpoint",
	"password":   "passphrase-file",
	"passphrase": "passphrase-file",
	"key":        "recipient",
	"output":     "out",
	"input":      "in",
}

// suggestCommand returns the subcommand the unknown input most likely
// meant, or "". Aliases win over edit distance.
func suggestCommand(unknown string, commands []*Command) string {
	if target, ok := commandAliases[strings.ToLower(unknown)]; ok {
		for _, command := range commands {
			if command.Name == target {
				return target
			}
		}
	}

	bestName := ""
	bestDistance := maxSuggestDistance + 1
	for _, command := range commands {
		distance := levenshtein(unknown, command.Name)
		if distance < bestDistance {
			bestDistance = distance
			bestName = command.Name
		}
	}
	return bestName
}

// suggestFlag finds the first argument naming an undefined flag and
// returns the defined flag it most likely meant, as "--name". Only the
// first unknown flag is considered.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if index := strings.IndexByte(name, '='); index >= 0 {
			name = name[:index]
		}
		if flagSet.Lookup(name) != nil || (len(name) == 1 && flagSet.ShorthandLookup(name) != nil) {
			continue
		}

		if target, ok := flagAliases[strings.ToLower(name)]; ok && flagSet.Lookup(target) != nil {
			return "--" + target
		}

		bestName := ""
		bestDistance := maxSuggestDistance + 1
		flagSet.VisitAll(func(candidate *pflag.Flag) {
			if distance := levenshtein(name, candidate.Name); distance < bestDistance {
				bestDistance = distance
				bestName = candidate.Name
			}
		})
		if bestName == "" {
			return ""
		}
		return "--" + bestName
	}
	return ""
}

// levenshtein computes the edit distance between two strings using a
// single row of the distance matrix.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	previous := make([]int, len(a)+1)
	current := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(a)]
}
