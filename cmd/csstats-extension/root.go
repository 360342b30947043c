// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/csstats/csstats-extension/internal/config"
	"github.com/csstats/csstats-extension/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the extension CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csstats-extension",
		Short: "CSStats.gg extension plugin",
		Long: `csstats-extension is the backend of the CSStats.gg Steam client plugin.
It answers the host's load, frontend-ready and unload hooks, acknowledging
readiness once per load and logging every transition and fault.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/csstats-extension/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewDriveCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig reads the config file and the flags of cmd. An explicit
// --config must exist; the XDG default may be absent.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile, true, cmd.Flags())
	}
	path, err := xdg.ConfigFile()
	if err != nil {
		path = ""
	}
	return config.Load(path, false, cmd.Flags())
}

func buildVersion() string {
	return version
}
