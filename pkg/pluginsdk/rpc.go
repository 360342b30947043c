// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package pluginsdk

import (
	"context"
	"errors"
	"net/rpc"

	"github.com/samber/oops"

	"github.com/csstats/csstats-extension/internal/logging"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
)

// LoadReply is the wire result of Plugin.Load.
type LoadReply struct {
	// Acknowledged is true when the plugin acknowledged readiness during
	// this call.
	Acknowledged bool
	// Err is the startup failure message, empty on success.
	Err string
}

// RPCServer exposes lifecycle hooks over net/rpc (plugin process side).
type RPCServer struct {
	hooks lifecycle.Hooks
	relay *relayHost
}

// Load runs the plugin's Load and reports the acknowledgment it recorded.
func (s *RPCServer) Load(_ interface{}, reply *LoadReply) error {
	s.relay.take()
	err := s.hooks.Load(context.Background())
	reply.Acknowledged = s.relay.take()
	if err != nil {
		reply.Err = err.Error()
	}
	return nil
}

// FrontendReady forwards the frontend notification.
func (s *RPCServer) FrontendReady(_ interface{}, done *bool) error {
	s.hooks.FrontendReady(context.Background())
	*done = true
	return nil
}

// Unload forwards the unload request.
func (s *RPCServer) Unload(_ interface{}, done *bool) error {
	s.hooks.Unload(context.Background())
	*done = true
	return nil
}

// RPCClient drives a plugin process over net/rpc (host side).
// It implements lifecycle.Hooks.
type RPCClient struct {
	client *rpc.Client
	host   lifecycle.Host
	logger *logging.Logger
}

var _ lifecycle.Hooks = (*RPCClient)(nil)

// NewRPCClient wraps c. A nil host ignores acknowledgments; a nil logger
// discards transport faults.
func NewRPCClient(c *rpc.Client, host lifecycle.Host, logger *logging.Logger) *RPCClient {
	if host == nil {
		host = lifecycle.HostFunc(func(context.Context) error { return nil })
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &RPCClient{client: c, host: host, logger: logger}
}

// Load asks the plugin to load. A plugin startup failure comes back as a
// *lifecycle.StartupFailure carrying the plugin's message unchanged. The
// plugin's acknowledgment is replayed on the host; if the host rejects it
// the plugin is unloaded again and the rejection is returned.
func (c *RPCClient) Load(ctx context.Context) error {
	var reply LoadReply
	if err := c.call(ctx, "Plugin.Load", &reply); err != nil {
		return &lifecycle.StartupFailure{Err: oops.In("pluginsdk").With("method", "Plugin.Load").Wrap(err)}
	}
	if reply.Err != "" {
		return &lifecycle.StartupFailure{Err: errors.New(reply.Err)}
	}
	if !reply.Acknowledged {
		return nil
	}
	if err := c.host.Ready(ctx); err != nil {
		c.Unload(ctx)
		return &lifecycle.StartupFailure{Err: oops.In("pluginsdk").Wrapf(err, "acknowledge readiness")}
	}
	return nil
}

// FrontendReady forwards the notification. Transport faults are logged.
func (c *RPCClient) FrontendReady(ctx context.Context) {
	var done bool
	if err := c.call(ctx, "Plugin.FrontendReady", &done); err != nil {
		c.logger.Fault(ctx, "frontend ready notification failed", oops.
			Code(lifecycle.CodeNotificationFailure).
			In("pluginsdk").
			With("hook", lifecycle.HookFrontendReady.String()).
			Wrap(err))
	}
}

// Unload forwards the unload request. Transport faults are logged.
func (c *RPCClient) Unload(ctx context.Context) {
	var done bool
	if err := c.call(ctx, "Plugin.Unload", &done); err != nil {
		c.logger.Fault(ctx, "unload request failed", oops.
			Code(lifecycle.CodeTeardownFailure).
			In("pluginsdk").
			With("hook", lifecycle.HookUnload.String()).
			Wrap(err))
	}
}

// call issues method and waits for the reply or ctx, whichever is first.
func (c *RPCClient) call(ctx context.Context, method string, reply any) error {
	call := c.client.Go(method, new(interface{}), reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return call.Error
	case <-ctx.Done():
		return ctx.Err()
	}
}
