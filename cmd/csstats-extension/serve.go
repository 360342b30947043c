// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/csstats/csstats-extension/internal/extension"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
	"github.com/csstats/csstats-extension/pkg/pluginsdk"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as a plugin process under a host",
		Long: `Run the extension as a go-plugin process. The host launches this
command, completes the handshake over stdout and then drives the lifecycle
hooks over net/rpc. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ext, err := extension.New(cfg, extension.Options{
				Version:   buildVersion(),
				LogOutput: os.Stderr,
			})
			if err != nil {
				return err
			}

			pluginsdk.Serve(&pluginsdk.ServeConfig{
				Hooks: func(host lifecycle.Host) lifecycle.Hooks {
					return ext.Bind(host)
				},
			})
			return nil
		},
	}
}
