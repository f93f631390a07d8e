// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/lib/backend/builtin"
	"github.com/bureau-foundation/strata/lib/chainfile"
	"github.com/bureau-foundation/strata/lib/codec"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
)

type inspectParams struct {
	cli.JSONOutput
	Chain string `json:"chain" flag:"chain,c" desc:"chain file"`
	CBOR  bool   `json:"cbor"  flag:"cbor"    desc:"include the CBOR diagnostic notation of the encoded chain"`
	YAML  bool   `json:"yaml"  flag:"yaml"    desc:"print the chain back out as a normalized YAML chain file"`
}

// chainReport is the inspect --json document.
type chainReport struct {
	Chain        string             `json:"chain"`
	Layers       []pathspec.Element `json:"layers"`
	Identity     string             `json:"identity"`
	CanonicalKey string             `json:"canonical_key"`
	CBOR         string             `json:"cbor,omitempty"`
}

func inspectCommand() *cli.Command {
	var params inspectParams
	return &cli.Command{
		Name:    "inspect",
		Summary: "Render a chain, its identity, and its canonical key",
		Description: `Build the chain a chain file describes and print it without opening
any layer. Credentials are not read.

The identity hashes every layer including the innermost address. The
canonical key leaves the innermost address out: chains that differ only
in that address share one open backend.`,
		Usage:  "strata inspect --chain FILE [--json] [--cbor] [--yaml]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Show the layers of a chain",
				Command:     "strata inspect --chain vault.yaml",
			},
			{
				Description: "Convert a JSONC chain file to normalized YAML",
				Command:     "strata inspect --chain vault.jsonc --yaml > vault.yaml",
			},
			{
				Description: "Machine-readable chain description",
				Command:     "strata inspect --chain vault.yaml --json",
			},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("inspect takes no positional arguments, got %q", args[0])
			}
			return runInspect(params, os.Stdout)
		},
	}
}

func runInspect(params inspectParams, stdout io.Writer) error {
	if params.Chain == "" {
		return fmt.Errorf("--chain is required")
	}
	if params.YAML && params.OutputJSON {
		return fmt.Errorf("--yaml and --json are mutually exclusive")
	}
	file, err := chainfile.ReadFile(params.Chain)
	if err != nil {
		return err
	}
	reg := registry.New()
	if err := builtin.Register(reg, builtin.Options{}); err != nil {
		return err
	}
	nodes, err := file.Build(reg)
	if err != nil {
		return fmt.Errorf("%s: %w", params.Chain, err)
	}
	spec := nodes[len(nodes)-1]

	if params.YAML {
		return writeChainFile(stdout, spec, file.Credentials)
	}

	report := chainReport{
		Chain:        spec.String(),
		Layers:       spec.Elements(),
		Identity:     spec.Identity().String(),
		CanonicalKey: spec.CanonicalKey().String(),
	}
	if params.CBOR {
		encoded, err := pathspec.Marshal(spec)
		if err != nil {
			return err
		}
		if report.CBOR, err = codec.Diagnose(encoded); err != nil {
			return err
		}
	}

	if done, err := params.EmitJSON(stdout, report); done {
		return err
	}
	_, err = io.WriteString(stdout, renderReport(report, file.Credentials))
	return err
}

// writeChainFile prints spec as a chain file. Attribute values come
// out normalized, so a JSONC file and its YAML rendering describe the
// same chain.
func writeChainFile(w io.Writer, spec *pathspec.PathSpec, credentials []chainfile.Credential) error {
	out := chainfile.FromPathSpec(spec)
	out.Credentials = credentials
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encoding chain file: %w", err)
	}
	return encoder.Close()
}

var (
	tagStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	layerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	attributeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	keyStyle       = lipgloss.NewStyle().Bold(true)
	boxStyle       = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func renderReport(report chainReport, credentials []chainfile.Credential) string {
	var blocks []string
	for index, layer := range report.Layers {
		lines := []string{layerStyle.Render(fmt.Sprintf("layer %d", index)) + "  " + tagStyle.Render(string(layer.Type))}

		names := make([]string, 0, len(layer.Attributes))
		for name := range layer.Attributes {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			lines = append(lines, "  "+attributeStyle.Render(name)+" = "+fmt.Sprint(layer.Attributes[name]))
		}
		for _, credential := range credentials {
			if credential.Layer != index {
				continue
			}
			source := "env " + credential.Env
			if credential.File != "" {
				source = "file " + credential.File
			}
			lines = append(lines, "  "+attributeStyle.Render("credential")+" = "+credential.Kind+" from "+source)
		}
		blocks = append(blocks, boxStyle.Render(strings.Join(lines, "\n")))
	}

	summary := []string{
		keyStyle.Render("chain") + "          " + report.Chain,
		keyStyle.Render("identity") + "       " + report.Identity,
		keyStyle.Render("canonical key") + "  " + report.CanonicalKey,
	}
	if report.CBOR != "" {
		summary = append(summary, keyStyle.Render("cbor")+"           "+report.CBOR)
	}
	blocks = append(blocks, strings.Join(summary, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"
}
