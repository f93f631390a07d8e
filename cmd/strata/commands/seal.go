// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/lib/digest"
	"github.com/bureau-foundation/strata/lib/sealed"
	"github.com/bureau-foundation/strata/lib/secret"
)

type sealParams struct {
	In               string   `json:"in"                flag:"in,i"             desc:"plaintext file to seal"`
	Out              string   `json:"out"               flag:"out,o"            desc:"age volume to create (must not exist)"`
	Recipients       []string `json:"recipients"        flag:"recipient,r"      desc:"age X25519 recipient (repeatable)"`
	GenerateIdentity string   `json:"generate_identity" flag:"generate-identity" desc:"generate an identity, write it to this file, and seal to it"`
	PassphraseFile   string   `json:"passphrase_file"   flag:"passphrase-file"  desc:"read the passphrase from this file (- for stdin)"`
	WorkFactor       int      `json:"work_factor"       flag:"work-factor"      desc:"scrypt work factor for passphrase volumes" default:"18"`
}

func sealCommand() *cli.Command {
	var params sealParams
	return &cli.Command{
		Name:    "seal",
		Summary: "Create an age volume",
		Description: `Encrypt a file into an age volume that an AGE chain layer can open.

A volume is sealed either to a passphrase or to one or more X25519
recipients, never both. Without --recipient, --generate-identity, or
--passphrase-file, the passphrase is prompted for on the terminal.`,
		Usage:  "strata seal --in FILE --out FILE [--recipient KEY ... | --passphrase-file FILE]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Seal a database with a prompted passphrase",
				Command:     "strata seal --in blobs.db --out vault.age",
			},
			{
				Description: "Seal to a new identity",
				Command:     "strata seal --in blobs.db --out vault.age --generate-identity vault.key",
			},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("seal takes no positional arguments, got %q", args[0])
			}
			return runSeal(params, os.Stdout)
		},
	}
}

func runSeal(params sealParams, stdout io.Writer) (err error) {
	if params.In == "" || params.Out == "" {
		return fmt.Errorf("--in and --out are required")
	}

	options := sealed.SealOptions{
		Recipients: params.Recipients,
		WorkFactor: params.WorkFactor,
	}

	if params.GenerateIdentity != "" {
		keypair, err := sealed.GenerateKeypair()
		if err != nil {
			return err
		}
		defer keypair.Close()
		if err := writeNewFile(params.GenerateIdentity, keypair.PrivateKey.Bytes(), 0o600); err != nil {
			return err
		}
		options.Recipients = append(options.Recipients, keypair.PublicKey)
		fmt.Fprintf(stdout, "recipient: %s\n", keypair.PublicKey)
	}

	if len(options.Recipients) == 0 {
		var passphrase *secret.Buffer
		if params.PassphraseFile != "" {
			passphrase, err = secret.ReadFromPath(params.PassphraseFile)
		} else {
			passphrase, err = cli.ReadPassword("Passphrase: ", true)
		}
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		defer passphrase.Close()
		options.Passphrase = passphrase
	} else if params.PassphraseFile != "" {
		return fmt.Errorf("--passphrase-file cannot be combined with recipients")
	}

	sum, err := digest.File(params.In)
	if err != nil {
		return err
	}

	input, err := os.Open(params.In)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.OpenFile(params.Out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, output.Close())
		if err != nil {
			os.Remove(params.Out)
		}
	}()

	if err := sealed.Seal(output, input, options); err != nil {
		return fmt.Errorf("sealing %s: %w", params.In, err)
	}
	fmt.Fprintf(stdout, "plaintext: %s\n", sum)
	return nil
}

// writeNewFile writes data to a file that must not already exist.
func writeNewFile(path string, data []byte, mode os.FileMode) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	return multierr.Append(err, file.Close())
}
