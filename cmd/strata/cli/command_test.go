// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/strata/lib/fserr"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "strata",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "cat",
				Run: func(args []string) error {
					called = "cat"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"cat"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "cat" {
		t.Errorf("dispatched to %q, want %q", called, "cat")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "strata",
		Subcommands: []*Command{
			{
				Name: "chain",
				Subcommands: []*Command{
					{
						Name: "check",
						Run: func(args []string) error {
							called = "chain check"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"chain", "check", "vault.yaml"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "chain check" {
		t.Errorf("dispatched to %q, want %q", called, "chain check")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "vault.yaml" {
		t.Errorf("args = %v, want [vault.yaml]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var chainPath string
	var target string

	command := &Command{
		Name: "cat",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			flagSet.StringVar(&chainPath, "chain", "chain.yaml", "chain file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--chain", "/evidence/vault.yaml", "extra"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if chainPath != "/evidence/vault.yaml" {
		t.Errorf("chainPath = %q, want %q", chainPath, "/evidence/vault.yaml")
	}
	if target != "extra" {
		t.Errorf("target = %q, want %q", target, "extra")
	}
}

func TestCommand_Execute_Params(t *testing.T) {
	var params struct {
		Chain string `flag:"chain,c" desc:"chain file"`
		JSONOutput
	}

	command := &Command{
		Name:   "inspect",
		Params: func() any { return &params },
		Run:    func(args []string) error { return nil },
	}

	if err := command.Execute([]string{"-c", "vault.yaml", "--json"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Chain != "vault.yaml" || !params.OutputJSON {
		t.Errorf("params = %+v", params)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "mount",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.String("mountpoint", "", "mount directory")
			flagSet.String("chain", "", "chain file")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--mountpiont", "/mnt"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --mountpoint") {
		t.Errorf("error = %q, want suggestion for '--mountpoint'", errStr)
	}
	if !strings.Contains(errStr, "mountpiont") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "mount",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.Bool("allow-other", false, "allow other users")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "strata",
		Subcommands: []*Command{
			{Name: "inspect"},
			{Name: "digest"},
			{Name: "version"},
		},
	}

	err := root.execute([]string{"digset"}, io.Discard)
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"digest\"") {
		t.Errorf("error = %q, want suggestion for 'digest'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "strata",
		Subcommands: []*Command{
			{Name: "inspect"},
			{Name: "digest"},
		},
	}

	err := root.execute([]string{"zzzzzzz"}, io.Discard)
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "strata",
				Summary: "Layered virtual filesystem resolver",
				Subcommands: []*Command{
					{Name: "cat", Summary: "Write a resolved object to stdout"},
				},
			}

			var buffer bytes.Buffer
			if err := root.execute([]string{helpArg}, &buffer); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
			if !strings.Contains(buffer.String(), "Write a resolved object") {
				t.Errorf("help output missing summary:\n%s", buffer.String())
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "strata",
		Subcommands: []*Command{
			{Name: "cat", Summary: "Write a resolved object to stdout"},
		},
	}

	err := root.execute([]string{}, io.Discard)
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "strata",
		Description: "Resolve layered path spec chains.",
		Subcommands: []*Command{
			{Name: "cat", Summary: "Write a resolved object to stdout"},
			{Name: "mount", Summary: "Mount a resolved entry read-only"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Read a row out of an encrypted database",
				Command:     "strata cat --chain vault.yaml",
			},
			{
				Description: "Browse a directory chain",
				Command:     "strata mount --chain evidence.yaml --mountpoint /mnt/evidence",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Resolve layered path spec chains.",
		"Usage:",
		"strata <command> [flags]",
		"Commands:",
		"cat",
		"Write a resolved object to stdout",
		"mount",
		"Examples:",
		"strata cat --chain vault.yaml",
		"strata mount --chain",
		"Run 'strata <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "mount",
		Summary: "Mount a resolved entry read-only",
		Usage:   "strata mount --chain FILE --mountpoint DIR",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.String("mountpoint", "", "mount directory")
			flagSet.Bool("allow-other", false, "allow other users")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"strata mount --chain FILE --mountpoint DIR",
		"Flags:",
		"mountpoint",
		"allow-other",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "strata"}
	chain := &Command{Name: "chain", parent: root}
	check := &Command{Name: "check", parent: chain}

	if got := root.fullName(); got != "strata" {
		t.Errorf("root.fullName() = %q, want %q", got, "strata")
	}
	if got := chain.fullName(); got != "strata chain" {
		t.Errorf("chain.fullName() = %q, want %q", got, "strata chain")
	}
	if got := check.fullName(); got != "strata chain check" {
		t.Errorf("check.fullName() = %q, want %q", got, "strata chain check")
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 1}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 1 {
		t.Errorf("ExitError does not report code 1")
	}
	if err.Error() != "exit code 1" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", &ExitError{Code: 7}, 7},
		{"wrapped exit error", fmt.Errorf("digest: %w", &ExitError{Code: 1}), 1},
		{"argument", fserr.Argumentf("bad row_index"), ExitArgument},
		{"access", fmt.Errorf("opening volume: %w", fserr.Accessf("wrong passphrase")), ExitAccess},
		{"structural", fserr.Structuralf("parent required"), ExitStructural},
		{"not found", fserr.NotFound("/missing"), ExitIO},
		{"unclassified", errors.New("boom"), ExitFailure},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCodeFor(test.err); got != test.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestHint(t *testing.T) {
	if hint := Hint(fserr.Accessf("wrong passphrase")); !strings.Contains(hint, "credentials") {
		t.Errorf("access hint = %q, want mention of credentials", hint)
	}
	if hint := Hint(fserr.Structuralf("parent required")); !strings.Contains(hint, "strata inspect") {
		t.Errorf("structural hint = %q, want mention of strata inspect", hint)
	}
	if hint := Hint(fserr.NotFound("/missing")); hint != "" {
		t.Errorf("IO hint = %q, want none", hint)
	}
}

func TestCommandLoggerAttributes(t *testing.T) {
	var buffer bytes.Buffer
	logger := newCommandLogger(&buffer, false, slog.LevelInfo, "cat", "vault.yaml")
	logger.Debug("suppressed")
	logger.Info("opened", "layer", 2)

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("decoding log record %q: %v", buffer.String(), err)
	}
	if record["command"] != "cat" || record["chain"] != "vault.yaml" || record["msg"] != "opened" {
		t.Errorf("record = %v", record)
	}

	buffer.Reset()
	newCommandLogger(&buffer, true, slog.LevelInfo, "version", "").Info("hello")
	if text := buffer.String(); !strings.Contains(text, "command=version") || strings.Contains(text, "chain=") {
		t.Errorf("text record = %q", text)
	}
}
