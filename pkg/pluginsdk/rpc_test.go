// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package pluginsdk_test

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/rpc"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/csstats/csstats-extension/internal/logging"
	"github.com/csstats/csstats-extension/pkg/lifecycle"
	"github.com/csstats/csstats-extension/pkg/pluginsdk"
)

// countingHost counts readiness acknowledgments and can reject them.
type countingHost struct {
	acks   atomic.Int32
	reject error
}

func (h *countingHost) Ready(context.Context) error {
	h.acks.Add(1)
	return h.reject
}

// connect wires a plugin-side server and a host-side client over an
// in-memory pipe.
func connect(factory pluginsdk.HooksFactory, host lifecycle.Host, logger *logging.Logger) (*pluginsdk.RPCClient, *rpc.Client) {
	serverConn, clientConn := net.Pipe()

	impl, err := (&pluginsdk.LifecyclePlugin{Hooks: factory}).Server(nil)
	Expect(err).NotTo(HaveOccurred())

	srv := rpc.NewServer()
	Expect(srv.RegisterName("Plugin", impl)).To(Succeed())
	go srv.ServeConn(serverConn)

	conn := rpc.NewClient(clientConn)
	raw, err := (&pluginsdk.LifecyclePlugin{Host: host, Logger: logger}).Client(nil, conn)
	Expect(err).NotTo(HaveOccurred())

	hooks, ok := raw.(*pluginsdk.RPCClient)
	Expect(ok).To(BeTrue())
	return hooks, conn
}

var _ = Describe("RPCClient", func() {
	var (
		ctx     context.Context
		host    *countingHost
		plugin  *lifecycle.Adapter
		setup   lifecycle.Step
		cleanup lifecycle.Step
		hooks   *pluginsdk.RPCClient
		conn    *rpc.Client
		ring    *logging.Ring
	)

	factory := func(relay lifecycle.Host) lifecycle.Hooks {
		plugin = lifecycle.New(relay, lifecycle.WithSetup(setup), lifecycle.WithCleanup(cleanup))
		return plugin
	}

	BeforeEach(func() {
		ctx = context.Background()
		host = &countingHost{}
		setup = nil
		cleanup = nil
		ring = logging.NewRing(logging.DefaultRingSize, slog.LevelInfo)
	})

	JustBeforeEach(func() {
		hooks, conn = connect(factory, host, logging.New("csstats-host", ring))
	})

	AfterEach(func() {
		_ = conn.Close()
	})

	Describe("Load", func() {
		It("replays the plugin acknowledgment on the host exactly once", func() {
			Expect(hooks.Load(ctx)).To(Succeed())
			Expect(host.acks.Load()).To(Equal(int32(1)))
			Expect(plugin.Phase()).To(Equal(lifecycle.PhaseReady))
		})

		It("does not acknowledge again when the plugin is already loaded", func() {
			Expect(hooks.Load(ctx)).To(Succeed())
			Expect(hooks.Load(ctx)).To(Succeed())
			Expect(host.acks.Load()).To(Equal(int32(1)))
		})

		Context("when setup fails", func() {
			BeforeEach(func() {
				setup = func(context.Context) error { return errors.New("disk full") }
			})

			It("returns a startup failure with the plugin's message", func() {
				err := hooks.Load(ctx)
				Expect(err).To(HaveOccurred())
				Expect(lifecycle.IsStartupFailure(err)).To(BeTrue())
				Expect(err.Error()).To(Equal("disk full"))
				Expect(host.acks.Load()).To(BeZero())
				Expect(plugin.Phase()).To(Equal(lifecycle.PhaseFailed))
			})
		})

		Context("when the host rejects the acknowledgment", func() {
			BeforeEach(func() {
				host.reject = errors.New("host shutting down")
			})

			It("unloads the plugin again and reports a startup failure", func() {
				err := hooks.Load(ctx)
				Expect(lifecycle.IsStartupFailure(err)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("host shutting down"))
				Expect(plugin.Phase()).To(Equal(lifecycle.PhaseUnloaded))
			})
		})
	})

	Describe("FrontendReady and Unload", func() {
		It("drive the plugin through the full lifecycle", func() {
			Expect(hooks.Load(ctx)).To(Succeed())

			hooks.FrontendReady(ctx)
			Expect(plugin.Phase()).To(Equal(lifecycle.PhaseFrontendReady))

			hooks.Unload(ctx)
			Expect(plugin.Phase()).To(Equal(lifecycle.PhaseUnloaded))
		})

		Context("when cleanup fails", func() {
			BeforeEach(func() {
				cleanup = func(context.Context) error { return errors.New("socket busy") }
			})

			It("still returns normally", func() {
				Expect(hooks.Load(ctx)).To(Succeed())
				Expect(func() { hooks.Unload(ctx) }).NotTo(Panic())
				Expect(plugin.Phase()).To(Equal(lifecycle.PhaseUnloaded))
			})
		})
	})

	Context("when the connection is gone", func() {
		JustBeforeEach(func() {
			Expect(conn.Close()).To(Succeed())
		})

		It("reports Load as a startup failure", func() {
			Expect(lifecycle.IsStartupFailure(hooks.Load(ctx))).To(BeTrue())
		})

		It("logs FrontendReady and Unload faults without panicking", func() {
			Expect(func() {
				hooks.FrontendReady(ctx)
				hooks.Unload(ctx)
			}).NotTo(Panic())

			lines := ring.Lines()
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(ContainSubstring("frontend ready notification failed"))
			Expect(lines[0]).To(ContainSubstring("code=" + lifecycle.CodeNotificationFailure))
			Expect(lines[1]).To(ContainSubstring("unload request failed"))
			Expect(lines[1]).To(ContainSubstring("code=" + lifecycle.CodeTeardownFailure))
		})
	})
})

var _ = Describe("LifecyclePlugin", func() {
	It("refuses to serve without a hooks factory", func() {
		_, err := (&pluginsdk.LifecyclePlugin{}).Server(nil)
		Expect(err).To(HaveOccurred())
	})

	It("refuses a factory that returns nil", func() {
		_, err := (&pluginsdk.LifecyclePlugin{
			Hooks: func(lifecycle.Host) lifecycle.Hooks { return nil },
		}).Server(nil)
		Expect(err).To(HaveOccurred())
	})
})
