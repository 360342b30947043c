// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/csstats/csstats-extension/internal/manifest"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin.json JSON Schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := manifest.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}
}
