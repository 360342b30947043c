// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

// Package extension assembles the CSStats extension from its configuration:
// the diagnostic logger, lifecycle metrics and the lifecycle adapter.
package extension

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/csstats/csstats-extension/internal/config"
	"github.com/csstats/csstats-extension/internal/logging"
	"github.com/csstats/csstats-extension/internal/observability"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
)

// shutdownTimeout bounds how long Unload waits for the metrics server.
const shutdownTimeout = 5 * time.Second

// Options holds optional collaborators.
type Options struct {
	// Version is attached to every log record.
	Version string
	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer
	// Ring, if set, also receives every record.
	Ring *logging.Ring
	// Setup, FrontendInit and Cleanup are feature work run inside the
	// matching hooks, after (or, for Cleanup, before) the extension's own.
	Setup        lifecycle.Step
	FrontendInit lifecycle.Step
	Cleanup      lifecycle.Step
}

var _ lifecycle.Observer = (*Extension)(nil)

// Extension is a configured extension ready to be bound to a host.
type Extension struct {
	cfg     *config.Config
	opts    Options
	logger  *logging.Logger
	metrics *observability.Metrics
	server  *observability.Server

	// phase mirrors the bound adapter's phase for the readiness probe,
	// which must not wait on a hook in progress.
	phase atomic.Value
}

// New builds the extension's logger and metrics from cfg.
func New(cfg *config.Config, opts Options) (*Extension, error) {
	if cfg == nil {
		return nil, oops.In("extension").Errorf("config is nil")
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler = logging.NewHandler(cfg.PluginName, opts.Version, cfg.LogFormat, level, opts.LogOutput)
	if opts.Ring != nil {
		handler = logging.Tee(handler, opts.Ring)
	}

	e := &Extension{cfg: cfg, opts: opts}

	// The failure hook only fires on emitted records, after metrics exist.
	e.logger = logging.FromConfig(cfg.LoggingEnabled, cfg.PluginName, handler,
		logging.WithFailureHook(func(err error) { e.metrics.RecordLoggingFailure(err) }))

	if cfg.MetricsAddr != "" {
		e.server = observability.NewServer(cfg.MetricsAddr, e.live, e.logger.Slog())
		e.metrics = e.server.Metrics()
	} else {
		e.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	return e, nil
}

// Logger returns the diagnostic logger.
func (e *Extension) Logger() *logging.Logger {
	return e.logger
}

// Metrics returns the lifecycle metrics.
func (e *Extension) Metrics() *observability.Metrics {
	return e.metrics
}

// MetricsAddr returns the metrics server address, or "" when it is not running.
func (e *Extension) MetricsAddr() string {
	if e.server == nil {
		return ""
	}
	return e.server.Addr()
}

// Bind creates the lifecycle adapter that acknowledges readiness to host.
func (e *Extension) Bind(host lifecycle.Host) *lifecycle.Adapter {
	e.phase.Store(lifecycle.PhaseUnloaded)
	return lifecycle.New(host,
		lifecycle.WithLogger(e.logger),
		lifecycle.WithObserver(e),
		lifecycle.WithSetup(e.setup),
		lifecycle.WithFrontendInit(e.opts.FrontendInit),
		lifecycle.WithCleanup(e.cleanup),
	)
}

// HookCompleted implements lifecycle.Observer.
func (e *Extension) HookCompleted(hook lifecycle.Hook, outcome lifecycle.Outcome) {
	e.metrics.HookCompleted(hook, outcome)
}

// PhaseChanged implements lifecycle.Observer.
func (e *Extension) PhaseChanged(phase lifecycle.Phase) {
	e.phase.Store(phase)
	e.metrics.PhaseChanged(phase)
}

// Phase returns the last phase reported by the bound adapter.
func (e *Extension) Phase() lifecycle.Phase {
	if p, ok := e.phase.Load().(lifecycle.Phase); ok {
		return p
	}
	return lifecycle.PhaseUnloaded
}

func (e *Extension) live() bool {
	return e.Phase().Live()
}

func (e *Extension) setup(ctx context.Context) error {
	if e.server != nil {
		// A previous failed load may have left the server up.
		if err := e.stopServer(ctx); err != nil {
			return err
		}
		errCh, err := e.server.Start()
		if err != nil {
			return err
		}
		go e.watch(errCh)
	}

	if e.opts.Setup == nil {
		return nil
	}
	if err := e.opts.Setup(ctx); err != nil {
		//nolint:errcheck // the setup error is the one the host needs
		e.stopServer(ctx)
		return err
	}
	return nil
}

func (e *Extension) cleanup(ctx context.Context) error {
	var errs []error
	if e.opts.Cleanup != nil {
		if err := e.opts.Cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.stopServer(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Extension) stopServer(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return e.server.Stop(ctx)
}

func (e *Extension) watch(errCh <-chan error) {
	for err := range errCh {
		e.logger.Fault(context.Background(), "observability server failed", err)
	}
}
