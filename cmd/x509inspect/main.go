// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command x509inspect decodes and checks X.509 certificates and revocation
// lists from the command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format
const (
	formatText = "text"
	formatYAML = "yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var format string

	root := &cobra.Command{
		Use:   "x509inspect",
		Short: "Decode and check X.509 certificates and CRLs",
		Long: `x509inspect decodes X.509 certificates and certificate revocation lists,
either PEM armored or raw DER, and reports their content.

Examples:
  # Show a certificate
  x509inspect cert server.pem

  # Check the signature against the issuer and the validity at a given time
  x509inspect cert server.pem --issuer ca.pem --at 2025-06-01T00:00:00Z

  # Show a revocation list as YAML
  x509inspect crl ca.crl --format yaml

  # Run the zlint registry over a certificate
  x509inspect lint server.pem`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatYAML {
				return fmt.Errorf("unknown format %q, want %s or %s", format, formatText, formatYAML)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&format, "format", formatText, "Output format: text or yaml")

	root.AddCommand(newCertCmd(&format))
	root.AddCommand(newCRLCmd(&format))
	root.AddCommand(newLintCmd(&format))
	root.AddCommand(newEnvelopeCmd(&format))
	return root
}

// writeYAML emits a report as a YAML document.
func writeYAML(w io.Writer, report any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
