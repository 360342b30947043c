// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package lifecycle

// Phase is the position of a session in the plugin lifecycle.
type Phase string

// Lifecycle phases.
const (
	PhaseUnloaded      Phase = "unloaded"
	PhaseLoading       Phase = "loading"
	PhaseReady         Phase = "ready"
	PhaseFrontendReady Phase = "frontend_ready"
	PhaseUnloading     Phase = "unloading"
	PhaseFailed        Phase = "failed"
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{
	PhaseUnloaded,
	PhaseLoading,
	PhaseReady,
	PhaseFrontendReady,
	PhaseUnloading,
	PhaseFailed,
}

func (p Phase) String() string {
	return string(p)
}

// Live reports whether the host considers the plugin up.
func (p Phase) Live() bool {
	return p == PhaseReady || p == PhaseFrontendReady
}

// Hook names a host entry point.
type Hook string

// Host entry points.
const (
	HookLoad          Hook = "load"
	HookFrontendReady Hook = "frontend_ready"
	HookUnload        Hook = "unload"
)

func (h Hook) String() string {
	return string(h)
}

// Outcome is how a hook invocation ended.
type Outcome string

// Hook outcomes.
const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)
