// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

//go:build integration

package cli_test

import (
	"context"
	"strings"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/csstats/csstats-extension/pkg/lifecycle"
	"github.com/csstats/csstats-extension/pkg/pluginsdk"
)

var _ = Describe("Plugin process", func() {
	Describe("go-plugin handshake", func() {
		It("acknowledges readiness once per load", func() {
			var acks atomic.Int32
			host := lifecycle.HostFunc(func(context.Context) error {
				acks.Add(1)
				return nil
			})

			client := pluginsdk.NewClient(env.command("serve", "--log-format=json"), host, nil)
			defer client.Kill()

			hooks, err := pluginsdk.Dispense(client)
			Expect(err).NotTo(HaveOccurred())

			ctx := context.Background()
			Expect(hooks.Load(ctx)).To(Succeed())
			Expect(hooks.Load(ctx)).To(Succeed())
			Expect(acks.Load()).To(Equal(int32(1)))

			hooks.FrontendReady(ctx)
			hooks.Unload(ctx)

			Expect(hooks.Load(ctx)).To(Succeed())
			Expect(acks.Load()).To(Equal(int32(2)))
			hooks.Unload(ctx)
		})
	})

	Describe("drive command", func() {
		It("runs the full lifecycle against the serve command", func() {
			cmd := env.command("drive", env.binary, "serve")

			output, err := cmd.Output()
			Expect(err).NotTo(HaveOccurred())

			out := string(output)
			Expect(strings.Count(out, "host: plugin acknowledged readiness")).To(Equal(1))
			Expect(out).To(ContainSubstring("host: load succeeded"))
			Expect(out).To(ContainSubstring("host: unload sent"))
		})
	})

	Describe("simulate command", func() {
		It("prints the recent log lines", func() {
			output, err := env.command("simulate", "--fail-load", "disk full").Output()
			Expect(err).NotTo(HaveOccurred())

			out := string(output)
			Expect(out).To(ContainSubstring("host: load failed: disk full"))
			Expect(out).To(ContainSubstring("plugin loading failed"))
		})
	})
})
