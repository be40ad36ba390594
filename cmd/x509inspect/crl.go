// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dark-bio/x509-go/x509"
	"github.com/spf13/cobra"
)

// crlReport is the structured form of a decoded revocation list.
type crlReport struct {
	Version            int           `yaml:"version"`
	Issuer             string        `yaml:"issuer"`
	SignatureAlgorithm string        `yaml:"signature_algorithm"`
	ThisUpdate         string        `yaml:"this_update"`
	NextUpdate         string        `yaml:"next_update,omitempty"`
	Number             string        `yaml:"number,omitempty"`
	Revoked            []entryReport `yaml:"revoked,omitempty"`
	CertificateStatus  string        `yaml:"certificate_status,omitempty"`
}

// entryReport is the structured form of a single revocation.
type entryReport struct {
	SerialNumber string `yaml:"serial_number"`
	RevokedAt    string `yaml:"revoked_at"`
	Reason       string `yaml:"reason,omitempty"`
}

func newCRLCmd(format *string) *cobra.Command {
	var certPath string

	cmd := &cobra.Command{
		Use:   "crl FILE",
		Short: "Decode a certificate revocation list",
		Long: `Decode a PEM or DER certificate revocation list and print its content.

With --cert, the revocation status of a certificate is looked up. The list
signature is not checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read crl: %w", err)
			}
			crl, err := x509.ParseCRL(data)
			if err != nil {
				return err
			}
			var status string
			if certPath != "" {
				cert, err := readCertificate(certPath)
				if err != nil {
					return err
				}
				status = "not revoked"
				if crl.IsRevoked(cert) {
					status = "revoked"
				}
			}
			if *format == formatYAML {
				report := newCRLReport(crl)
				report.CertificateStatus = status
				return writeYAML(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, crl)
			if status != "" {
				fmt.Fprintf(out, "Certificate: %s\n", status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&certPath, "cert", "", "Certificate to look up in the list")
	return cmd
}

// newCRLReport collects the content of a revocation list for structured
// output.
func newCRLReport(crl *x509.CertificateList) *crlReport {
	report := &crlReport{
		Version:            crl.Version(),
		Issuer:             crl.Issuer().String(),
		SignatureAlgorithm: crl.SignatureAlgorithm().Name(),
		ThisUpdate:         crl.ThisUpdate().Format(time.RFC3339),
	}
	if next, ok := crl.NextUpdate(); ok {
		report.NextUpdate = next.Format(time.RFC3339)
	}
	if n, ok := crl.CRLNumber(); ok {
		report.Number = n.String()
	}
	for _, entry := range crl.RevokedCertificates() {
		er := entryReport{
			SerialNumber: entry.SerialNumber().Text(16),
			RevokedAt:    entry.RevocationDate().Format(time.RFC3339),
		}
		if reason, ok := entry.ReasonCode(); ok {
			er.Reason = reason.String()
		}
		report.Revoked = append(report.Revoked, er)
	}
	return report
}
