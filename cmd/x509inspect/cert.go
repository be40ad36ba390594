// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dark-bio/x509-go/verify"
	"github.com/dark-bio/x509-go/x509"
	"github.com/jmhodges/clock"
	"github.com/spf13/cobra"
)

// certReport is the structured form of a decoded certificate.
type certReport struct {
	Version             int               `yaml:"version"`
	SerialNumber        string            `yaml:"serial_number"`
	Issuer              string            `yaml:"issuer"`
	Subject             string            `yaml:"subject"`
	NotBefore           string            `yaml:"not_before"`
	NotAfter            string            `yaml:"not_after"`
	SignatureAlgorithm  string            `yaml:"signature_algorithm"`
	PublicKeyAlgorithm  string            `yaml:"public_key_algorithm"`
	BasicConstraints    string            `yaml:"basic_constraints"`
	KeyUsage            []string          `yaml:"key_usage,omitempty"`
	ExtendedKeyUsage    []string          `yaml:"extended_key_usage,omitempty"`
	SubjectAltNames     []string          `yaml:"subject_alt_names,omitempty"`
	Extensions          []extensionReport `yaml:"extensions,omitempty"`
	UnsupportedCritical bool              `yaml:"unsupported_critical"`
	Signature           string            `yaml:"signature"`
	Validity            string            `yaml:"validity"`
}

// extensionReport is the structured form of a single extension.
type extensionReport struct {
	OID      string `yaml:"oid"`
	Critical bool   `yaml:"critical"`
	Status   string `yaml:"status"`
}

func newCertCmd(format *string) *cobra.Command {
	var (
		issuerPath string
		selfSigned bool
		at         string
	)
	cmd := &cobra.Command{
		Use:   "cert FILE",
		Short: "Decode a certificate and optionally check it",
		Long: `Decode a PEM or DER certificate and print its content.

With --issuer or --self-signed, the signature is checked while decoding and a
certificate failing the check is rejected. The validity window is evaluated
against the current time, or against --at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if issuerPath != "" && selfSigned {
				return errors.New("--issuer and --self-signed are mutually exclusive")
			}
			clk, err := clockAt(at)
			if err != nil {
				return err
			}
			opts := &x509.Options{Clock: clk}
			signature := "not checked"

			switch {
			case issuerPath != "":
				issuer, err := readCertificate(issuerPath)
				if err != nil {
					return err
				}
				opts.Verifier, opts.IssuerKey = verify.New(), issuer.PublicKey()
				signature = "verified by " + issuer.SubjectPrincipal()
			case selfSigned:
				opts.Verifier = verify.New()
				signature = "verified, self-signed"
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read certificate: %w", err)
			}
			cert, err := x509.ParseWithOptions(data, opts)
			if err != nil {
				return err
			}
			validity := "valid"
			if err := cert.CheckValidity(); err != nil {
				validity = validityStatus(err)
			}
			if *format == formatYAML {
				report := newCertReport(cert)
				report.Signature, report.Validity = signature, validity
				return writeYAML(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cert)
			fmt.Fprintf(out, "Signature: %s\n", signature)
			fmt.Fprintf(out, "Validity at %s: %s\n", clk.Now().UTC().Format(time.RFC3339), validity)
			if cert.HasUnsupportedCriticalExtension() {
				fmt.Fprintln(out, "Warning: unsupported critical extension present")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&issuerPath, "issuer", "", "Issuer certificate to check the signature with")
	cmd.Flags().BoolVar(&selfSigned, "self-signed", false, "Check the signature with the certificate's own key")
	cmd.Flags().StringVar(&at, "at", "", "Evaluate validity at this RFC 3339 time instead of now")
	return cmd
}

// clockAt returns the wall clock, or a clock frozen at the given RFC 3339
// instant.
func clockAt(at string) (clock.Clock, error) {
	if at == "" {
		return clock.New(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return nil, fmt.Errorf("invalid --at time: %w", err)
	}
	fake := clock.NewFake()
	fake.Set(t)
	return fake, nil
}

// readCertificate loads and decodes a certificate file.
func readCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	return x509.Parse(data)
}

// validityStatus renders a failed validity check.
func validityStatus(err error) string {
	switch {
	case errors.Is(err, x509.ErrExpired):
		return "expired"
	case errors.Is(err, x509.ErrNotYetValid):
		return "not yet valid"
	}
	return err.Error()
}

// newCertReport collects the content of a certificate for structured output.
func newCertReport(cert *x509.Certificate) *certReport {
	report := &certReport{
		Version:             cert.Version(),
		SerialNumber:        cert.SerialNumber().Text(16),
		Issuer:              cert.IssuerPrincipal(),
		Subject:             cert.SubjectPrincipal(),
		NotBefore:           cert.NotBefore().Format(time.RFC3339),
		NotAfter:            cert.NotAfter().Format(time.RFC3339),
		SignatureAlgorithm:  cert.SigAlgName(),
		PublicKeyAlgorithm:  cert.PublicKey().Algorithm.Name(),
		UnsupportedCritical: cert.HasUnsupportedCriticalExtension(),
	}
	switch n := cert.BasicConstraints(); n {
	case -1:
		report.BasicConstraints = "not a CA"
	case x509.NoPathLimit:
		report.BasicConstraints = "CA, unlimited path"
	default:
		report.BasicConstraints = "CA, path length " + strconv.Itoa(n)
	}
	if usage, ok := cert.KeyUsage(); ok && usage != 0 {
		report.KeyUsage = strings.Split(usage.String(), ", ")
	}
	if eku := cert.ExtendedKeyUsage(); eku != nil {
		report.ExtendedKeyUsage = eku.Strings()
	}
	for _, name := range cert.SubjectAlternativeNames() {
		report.SubjectAltNames = append(report.SubjectAltNames, name.String())
	}
	report.Extensions = extensionReports(cert.Extensions())
	return report
}

// extensionReports summarises the decoding state of each extension.
func extensionReports(exts []*x509.Extension) []extensionReport {
	var reports []extensionReport
	for _, ext := range exts {
		status := "decoded"
		if value, err := ext.Payload(); err != nil {
			status = "anomaly: " + err.Error()
		} else if value == nil {
			status = "opaque"
		}
		reports = append(reports, extensionReport{
			OID:      ext.OID().String(),
			Critical: ext.Critical(),
			Status:   status,
		})
	}
	return reports
}
