// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/csstats/csstats-extension/internal/extension"
	"github.com/csstats/csstats-extension/internal/logging"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
)

// simulateConfig holds configuration for the simulate command.
type simulateConfig struct {
	failLoad     string
	failAttempts int
	retries      uint64
	skipFrontend bool
	logLines     int
}

// NewSimulateCmd creates the simulate subcommand.
func NewSimulateCmd() *cobra.Command {
	sc := &simulateConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run load, frontend_ready and unload in-process",
		Long: `Drive the extension through a full lifecycle against a console host,
then print the most recent log lines.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, sc)
		},
	}

	cmd.Flags().StringVar(&sc.failLoad, "fail-load", "", "make setup fail with this message")
	cmd.Flags().IntVar(&sc.failAttempts, "fail-attempts", 0, "only fail the first N load attempts (0 = every attempt)")
	cmd.Flags().Uint64Var(&sc.retries, "retries", 0, "retry a failed load this many times")
	cmd.Flags().BoolVar(&sc.skipFrontend, "skip-frontend", false, "do not send frontend_ready")
	cmd.Flags().IntVar(&sc.logLines, "log-lines", logging.DefaultRingSize, "number of recent log lines to print")

	return cmd
}

func runSimulate(cmd *cobra.Command, sc *simulateConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ring := logging.NewRing(sc.logLines, slog.LevelDebug)

	attempts := 0
	opts := extension.Options{
		Version:   buildVersion(),
		LogOutput: cmd.ErrOrStderr(),
		Ring:      ring,
	}
	if sc.failLoad != "" {
		opts.Setup = func(context.Context) error {
			attempts++
			if sc.failAttempts == 0 || attempts <= sc.failAttempts {
				return errors.New(sc.failLoad)
			}
			return nil
		}
	}

	ext, err := extension.New(cfg, opts)
	if err != nil {
		return err
	}

	host := lifecycle.HostFunc(func(context.Context) error {
		fmt.Fprintln(out, "host: plugin acknowledged readiness")
		return nil
	})
	hooks := ext.Bind(host)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := retry.WithMaxRetries(sc.retries, retry.NewConstant(10*time.Millisecond))
	if err := lifecycle.LoadWithRetry(ctx, hooks, backoff); err != nil {
		fmt.Fprintf(out, "host: load failed: %v\n", err)
	} else {
		fmt.Fprintln(out, "host: load succeeded")
	}

	if !sc.skipFrontend {
		hooks.FrontendReady(ctx)
		fmt.Fprintln(out, "host: frontend_ready sent")
	}

	hooks.Unload(ctx)
	fmt.Fprintln(out, "host: unload sent")

	fmt.Fprintf(out, "final phase: %s\n", ext.Phase())
	fmt.Fprintln(out, "recent logs:")
	for _, line := range ring.Lines() {
		fmt.Fprintln(out, "  "+line)
	}
	return nil
}
