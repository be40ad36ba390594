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
	"slices"
	"strings"

	"github.com/dark-bio/x509-go/x509"
	"github.com/spf13/cobra"
	zlintx509 "github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3"
	"github.com/zmap/zlint/v3/lint"
)

// ErrLinting is returned when a lint reports an error or fatal result.
var ErrLinting = errors.New("linting failed")

// lintFinding is a single non-passing lint result.
type lintFinding struct {
	Name    string `yaml:"name"`
	Status  string `yaml:"status"`
	Details string `yaml:"details,omitempty"`
}

// statusNames renders the zlint statuses above Pass.
var statusNames = map[lint.LintStatus]string{
	lint.Notice: "notice",
	lint.Warn:   "warning",
	lint.Error:  "error",
	lint.Fatal:  "fatal",
}

func newLintCmd(format *string) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint FILE",
		Short: "Run the zlint registry over a certificate",
		Long: `Decode a certificate and run every registered zlint lint over it.

Lints reporting a notice, warning, error or fatal result are listed. The
command fails if any lint reports an error or fatal result, or also a warning
with --strict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read certificate: %w", err)
			}
			// Decode strictly first, zcrypto is far more lenient
			cert, err := x509.Parse(data)
			if err != nil {
				return err
			}
			findings, err := lintCertificate(cert.Encoded())
			if err != nil {
				return err
			}
			if *format == formatYAML {
				if err := writeYAML(cmd.OutOrStdout(), findings); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, f := range findings {
					fmt.Fprintf(out, "%-8s %s: %s\n", f.Status, f.Name, f.Details)
				}
				fmt.Fprintf(out, "%d findings\n", len(findings))
			}
			return checkFindings(findings, strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Also fail on warnings")
	return cmd
}

// lintCertificate runs the global zlint registry over a DER certificate and
// returns the non-passing results, sorted by lint name.
func lintCertificate(der []byte) ([]lintFinding, error) {
	cert, err := zlintx509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lint certificate: %w", err)
	}
	res := zlint.LintCertificateEx(cert, lint.GlobalRegistry())

	var findings []lintFinding
	for name, result := range res.Results {
		if result.Status > lint.Pass {
			findings = append(findings, lintFinding{
				Name:    name,
				Status:  statusNames[result.Status],
				Details: result.Details,
			})
		}
	}
	slices.SortFunc(findings, func(a, b lintFinding) int {
		return strings.Compare(a.Name, b.Name)
	})
	return findings, nil
}

// checkFindings fails if any finding is severe enough.
func checkFindings(findings []lintFinding, strict bool) error {
	var failed []string
	for _, f := range findings {
		if f.Status == "error" || f.Status == "fatal" || (strict && f.Status == "warning") {
			failed = append(failed, f.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d lints: %v", ErrLinting, len(failed), failed)
	}
	return nil
}
