// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

// Package pluginsdk runs a lifecycle.Hooks implementation as a separate
// plugin process and drives it from the host.
//
// The plugin process and the host talk net/rpc over HashiCorp go-plugin.
// The plugin side wraps its hooks around a relay Host that records the
// readiness acknowledgment; the host side replays that acknowledgment on
// its own Host exactly once per successful Load.
//
// Example usage:
//
//	func main() {
//		pluginsdk.Serve(&pluginsdk.ServeConfig{
//			Hooks: func(host lifecycle.Host) lifecycle.Hooks {
//				return lifecycle.New(host, lifecycle.WithSetup(setup))
//			},
//		})
//	}
package pluginsdk

import (
	"context"
	"net/rpc"
	"os/exec"
	"sync"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"

	"github.com/csstats/csstats-extension/internal/logging"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
)

// PluginName is the key the lifecycle plugin is dispensed under.
const PluginName = "lifecycle"

// HandshakeConfig is the go-plugin handshake configuration.
// Both host and plugins must use the same values.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CSSTATS_PLUGIN",
	MagicCookieValue: "csstats-lifecycle-v1",
}

// HooksFactory builds the plugin's hooks around host. The host passed in
// relays the readiness acknowledgment back to the host process.
type HooksFactory func(host lifecycle.Host) lifecycle.Hooks

// ServeConfig configures the plugin server.
type ServeConfig struct {
	// Hooks builds the lifecycle implementation. Required; Serve panics if nil.
	Hooks HooksFactory
}

// Serve starts the plugin server. This should be called from main().
// It blocks and never returns under normal operation.
func Serve(config *ServeConfig) {
	if config == nil {
		panic("pluginsdk: config cannot be nil")
	}
	if config.Hooks == nil {
		panic("pluginsdk: config.Hooks cannot be nil")
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			PluginName: &LifecyclePlugin{Hooks: config.Hooks},
		},
	})
}

// NewClient creates a go-plugin client that launches cmd as the plugin
// process. Acknowledgments from the plugin are replayed on host.
func NewClient(cmd *exec.Cmd, host lifecycle.Host, logger *logging.Logger) *hashiplug.Client {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			PluginName: &LifecyclePlugin{Host: host, Logger: logger},
		},
		Cmd:              cmd,
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
	})
}

// Dispense connects to the plugin process and returns its hooks.
func Dispense(client *hashiplug.Client) (*RPCClient, error) {
	proto, err := client.Client()
	if err != nil {
		return nil, oops.In("pluginsdk").Wrapf(err, "connect to plugin")
	}
	raw, err := proto.Dispense(PluginName)
	if err != nil {
		return nil, oops.In("pluginsdk").With("plugin", PluginName).Wrapf(err, "dispense plugin")
	}
	hooks, ok := raw.(*RPCClient)
	if !ok {
		return nil, oops.In("pluginsdk").Errorf("unexpected plugin type %T", raw)
	}
	return hooks, nil
}

// LifecyclePlugin implements go-plugin's Plugin interface for net/rpc.
// Hooks is used by the plugin process, Host and Logger by the host.
type LifecyclePlugin struct {
	Hooks  HooksFactory
	Host   lifecycle.Host
	Logger *logging.Logger
}

// Server returns the RPC server (called by plugin process).
func (p *LifecyclePlugin) Server(*hashiplug.MuxBroker) (interface{}, error) {
	if p.Hooks == nil {
		return nil, oops.In("pluginsdk").Errorf("hooks factory is nil")
	}
	relay := &relayHost{}
	hooks := p.Hooks(relay)
	if hooks == nil {
		return nil, oops.In("pluginsdk").Errorf("hooks factory returned nil")
	}
	return &RPCServer{hooks: hooks, relay: relay}, nil
}

// Client returns the host-side hooks (called by host process).
func (p *LifecyclePlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (interface{}, error) {
	return NewRPCClient(c, p.Host, p.Logger), nil
}

// relayHost records that the plugin acknowledged readiness.
type relayHost struct {
	mu    sync.Mutex
	acked bool
}

func (h *relayHost) Ready(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.acked = true
	return nil
}

// take returns whether an acknowledgment was recorded and clears it.
func (h *relayHost) take() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	acked := h.acked
	h.acked = false
	return acked
}
