// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/csstats/csstats-extension/internal/logging"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
	"github.com/csstats/csstats-extension/pkg/pluginsdk"
)

// NewDriveCmd creates the drive subcommand.
func NewDriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drive <plugin-executable> [args...]",
		Short: "Act as a host for a plugin process",
		Long: `Launch a plugin executable (for example "csstats-extension serve"),
complete the go-plugin handshake and send load, frontend_ready and unload.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			handler := logging.NewHandler(cfg.PluginName+"-host", buildVersion(), cfg.LogFormat, nil, cmd.ErrOrStderr())
			logger := logging.FromConfig(cfg.LoggingEnabled, cfg.PluginName+"-host", handler)

			host := lifecycle.HostFunc(func(context.Context) error {
				fmt.Fprintln(out, "host: plugin acknowledged readiness")
				return nil
			})

			// #nosec G204 -- the executable is chosen by the operator running this command
			child := exec.Command(args[0], args[1:]...)
			child.Env = os.Environ()
			client := pluginsdk.NewClient(child, host, logger)
			defer client.Kill()

			hooks, err := pluginsdk.Dispense(client)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if err := hooks.Load(ctx); err != nil {
				fmt.Fprintf(out, "host: load failed: %v\n", err)
			} else {
				fmt.Fprintln(out, "host: load succeeded")
			}
			hooks.FrontendReady(ctx)
			hooks.Unload(ctx)
			fmt.Fprintln(out, "host: unload sent")
			return nil
		},
	}
}
