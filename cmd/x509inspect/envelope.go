// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/dark-bio/x509-go/envelope"
	"github.com/spf13/cobra"
)

// envelopeReport is the structured form of a signature envelope.
type envelopeReport struct {
	Algorithm string `yaml:"algorithm"`
	Size      int    `yaml:"size"`
	CBOR      string `yaml:"cbor"`
}

func newEnvelopeCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "envelope FILE",
		Short: "Print the CBOR signature envelope of a certificate",
		Long: `Decode a certificate and print the deterministic CBOR envelope holding its
signature algorithm, signed bytes, signature and subject key, hex encoded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := readCertificate(args[0])
			if err != nil {
				return err
			}
			env := envelope.New(cert)
			blob, err := env.Marshal()
			if err != nil {
				return err
			}
			if *format == formatYAML {
				return writeYAML(cmd.OutOrStdout(), &envelopeReport{
					Algorithm: cert.SigAlgName(),
					Size:      len(blob),
					CBOR:      hex.EncodeToString(blob),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(blob))
			return nil
		},
	}
}
