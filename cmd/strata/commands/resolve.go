// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/lib/digest"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/vfs"
)

func catCommand() *cli.Command {
	var params chainParams
	return &cli.Command{
		Name:    "cat",
		Summary: "Write the resolved object to stdout",
		Usage:   "strata cat --chain FILE",
		Params:  func() any { return &params },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("cat takes no positional arguments, got %q", args[0])
			}
			return runCat(params, os.Stdout)
		},
	}
}

func runCat(params chainParams, stdout io.Writer) error {
	return withChain(params, "cat", func(s *session, spec *pathspec.PathSpec) error {
		object, err := s.resolver.OpenFileObject(spec)
		if err != nil {
			return fmt.Errorf("opening %s: %w", spec, err)
		}
		defer object.Close()

		if _, err := io.Copy(stdout, io.NewSectionReader(object, 0, object.Size())); err != nil {
			return fmt.Errorf("reading %s: %w", spec, err)
		}
		return nil
	})
}

type lsParams struct {
	chainParams
	cli.JSONOutput
}

// entryInfo is one line of ls output.
type entryInfo struct {
	Name      string `json:"name"`
	Chain     string `json:"chain"`
	Size      int64  `json:"size"`
	Directory bool   `json:"directory"`
	Virtual   bool   `json:"virtual"`
	Root      bool   `json:"root"`
}

func lsCommand() *cli.Command {
	var params lsParams
	return &cli.Command{
		Name:    "ls",
		Summary: "List the resolved entry and its sub entries",
		Description: `List the entry a chain addresses, followed by its sub entries:
the files of a directory, or the rows of a SQLITE_BLOB table.`,
		Usage:  "strata ls --chain FILE [--json]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("ls takes no positional arguments, got %q", args[0])
			}
			return runLs(params, os.Stdout)
		},
	}
}

func runLs(params lsParams, stdout io.Writer) error {
	return withChain(params.chainParams, "ls", func(s *session, spec *pathspec.PathSpec) error {
		entry, err := s.resolver.OpenFileEntry(spec)
		if err != nil {
			return fmt.Errorf("opening %s: %w", spec, err)
		}
		defer entry.Close()

		self, err := describe(entry)
		if err != nil {
			return err
		}
		entries := []entryInfo{self}

		children, err := entry.SubFileEntries()
		if err != nil {
			return fmt.Errorf("listing %s: %w", spec, err)
		}
		for _, child := range children {
			info, err := describe(child)
			if err != nil {
				return err
			}
			entries = append(entries, info)
		}

		if done, err := params.EmitJSON(stdout, entries); done {
			return err
		}

		writer := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
		for _, info := range entries {
			name := info.Name
			if name == "" {
				name = "."
			}
			fmt.Fprintf(writer, "%s\t%d\t%s\t%s\n", flags(info), info.Size, name, info.Chain)
		}
		return writer.Flush()
	})
}

func describe(entry vfs.FileEntry) (entryInfo, error) {
	info := entryInfo{
		Name:      entry.Name(),
		Chain:     entry.PathSpec().String(),
		Directory: entry.IsDirectory(),
		Virtual:   entry.IsVirtual(),
		Root:      entry.IsRoot(),
	}
	if !info.Directory {
		size, err := entry.Size()
		if err != nil {
			return entryInfo{}, fmt.Errorf("sizing %s: %w", info.Chain, err)
		}
		info.Size = size
	}
	return info, nil
}

// flags renders the entry kind as three columns: d for directory, v
// for virtual, r for root.
func flags(info entryInfo) string {
	columns := []byte("---")
	if info.Directory {
		columns[0] = 'd'
	}
	if info.Virtual {
		columns[1] = 'v'
	}
	if info.Root {
		columns[2] = 'r'
	}
	return string(columns)
}

func existsCommand() *cli.Command {
	var params chainParams
	return &cli.Command{
		Name:    "exists",
		Summary: "Exit 0 if the chain resolves, 1 otherwise",
		Description: `Resolve a chain and report whether its entry exists.

Any resolution failure (a missing layer, a wrong credential, a corrupt
volume) is a negative answer: strata prints "false" and exits 1.`,
		Usage:  "strata exists --chain FILE",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("exists takes no positional arguments, got %q", args[0])
			}
			return runExists(params, os.Stdout)
		},
	}
}

func runExists(params chainParams, stdout io.Writer) error {
	return withChain(params, "exists", func(s *session, spec *pathspec.PathSpec) error {
		exists, err := s.resolver.FileEntryExistsByPathSpec(spec)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, exists)
		if !exists {
			return &cli.ExitError{Code: 1}
		}
		return nil
	})
}

type digestParams struct {
	chainParams
	Verify string `json:"verify" flag:"verify" desc:"expected hex digest; exit 1 on mismatch"`
}

func digestCommand() *cli.Command {
	var params digestParams
	return &cli.Command{
		Name:    "digest",
		Summary: "BLAKE3 digest of the resolved object",
		Description: `Print the BLAKE3-256 digest of the object a chain resolves to.

With --verify, compare against an expected digest (for example the one
seal printed for the plaintext) and exit 1 when they differ.`,
		Usage:  "strata digest --chain FILE [--verify HEX]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("digest takes no positional arguments, got %q", args[0])
			}
			return runDigest(params, os.Stdout)
		},
	}
}

func runDigest(params digestParams, stdout io.Writer) error {
	var expected digest.Digest
	if params.Verify != "" {
		var err error
		if expected, err = digest.Parse(params.Verify); err != nil {
			return fmt.Errorf("--verify: %w", err)
		}
	}

	return withChain(params.chainParams, "digest", func(s *session, spec *pathspec.PathSpec) error {
		object, err := s.resolver.OpenFileObject(spec)
		if err != nil {
			return fmt.Errorf("opening %s: %w", spec, err)
		}
		defer object.Close()

		sum, err := digest.Object(object)
		if err != nil {
			return fmt.Errorf("%s: %w", spec, err)
		}
		fmt.Fprintf(stdout, "%s  %s\n", sum, params.Chain)
		if params.Verify != "" && sum != expected {
			s.logger.Warn("digest mismatch", "chain", spec.String(), "want", expected.String(), "got", sum.String())
			return &cli.ExitError{Code: 1}
		}
		return nil
	})
}
