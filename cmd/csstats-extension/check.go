// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/csstats/csstats-extension/internal/manifest"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Check a plugin package directory",
		Long: `Check that a plugin package contains plugin.json, backend/ and frontend/,
report the optional webkit/ and .millennium/ entries, and validate plugin.json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			report, err := manifest.Check(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "package: %s\n", report.Dir)
			for _, e := range report.Entries {
				status := "ok"
				switch {
				case !e.Exists && e.Required:
					status = "missing"
				case !e.Exists:
					status = "absent (optional)"
				}
				fmt.Fprintf(out, "  %-14s %s\n", e.Path, status)
			}

			switch {
			case report.ManifestErr != nil:
				fmt.Fprintf(out, "manifest: invalid: %s\n", manifest.FormatSchemaError(report.ManifestErr))
			case report.Manifest != nil:
				m := report.Manifest
				fmt.Fprintf(out, "manifest: %s (%s)", m.Name, m.CommonName)
				if v := m.SemVer(); v != nil {
					fmt.Fprintf(out, " v%s", v)
					if v.Prerelease() != "" {
						fmt.Fprint(out, " (pre-release)")
					}
				}
				fmt.Fprintln(out)
			}

			if report.OK() {
				return nil
			}
			if missing := report.Missing(); len(missing) > 0 {
				return oops.In("check").
					With("missing", missing).
					Errorf("package check failed: missing %s", strings.Join(missing, ", "))
			}
			return oops.In("check").Wrapf(report.ManifestErr, "package check failed")
		},
	}
}
