// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

// Package lifecycle implements the plugin side of the host lifecycle:
// load, an optional frontend-ready notification, and unload.
//
// Only Load reports failure to the host. FrontendReady and Unload log
// every fault and always return normally, since the host has no handler
// for them.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/csstats/csstats-extension/internal/logging"
)

// Hooks is the contract the host drives.
type Hooks interface {
	// Load brings the plugin up and acknowledges readiness to the host.
	Load(ctx context.Context) error
	// FrontendReady notifies the plugin that the host frontend is up.
	// The host may never call it.
	FrontendReady(ctx context.Context)
	// Unload tears the plugin down.
	Unload(ctx context.Context)
}

// Host receives the readiness acknowledgment.
type Host interface {
	Ready(ctx context.Context) error
}

// HostFunc adapts a function to Host.
type HostFunc func(ctx context.Context) error

// Ready calls f(ctx).
func (f HostFunc) Ready(ctx context.Context) error {
	return f(ctx)
}

// Observer is notified of hook outcomes and phase changes.
type Observer interface {
	HookCompleted(hook Hook, outcome Outcome)
	PhaseChanged(phase Phase)
}

type nopObserver struct{}

func (nopObserver) HookCompleted(Hook, Outcome) {}
func (nopObserver) PhaseChanged(Phase)          {}

// Step is a unit of feature work run inside a hook.
type Step func(ctx context.Context) error

// Session is a snapshot of the current lifecycle session.
// ID is zero when no session is active.
type Session struct {
	ID        ulid.ULID
	Phase     Phase
	StartedAt time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger routes phase transitions and faults through logger.
// Without it the adapter emits nothing.
func WithLogger(logger *logging.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSetup sets the work Load runs before acknowledging readiness.
func WithSetup(step Step) Option {
	return func(a *Adapter) {
		a.setup = step
	}
}

// WithFrontendInit sets the work FrontendReady runs.
func WithFrontendInit(step Step) Option {
	return func(a *Adapter) {
		a.frontendInit = step
	}
}

// WithCleanup sets the work Unload runs.
func WithCleanup(step Step) Option {
	return func(a *Adapter) {
		a.cleanup = step
	}
}

// WithObserver registers an observer for hook outcomes and phase changes.
func WithObserver(o Observer) Option {
	return func(a *Adapter) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithClock overrides the session clock.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// Adapter translates host lifecycle calls into a deterministic phase
// sequence. Hooks are serialized; none of them blocks or spawns work.
type Adapter struct {
	host         Host
	logger       *logging.Logger
	observer     Observer
	setup        Step
	frontendInit Step
	cleanup      Step
	now          func() time.Time

	mu      sync.Mutex
	phase   Phase
	session Session
}

// Compile-time interface check.
var _ Hooks = (*Adapter)(nil)

// New creates an Adapter that acknowledges readiness to host.
// Panics if host is nil.
func New(host Host, opts ...Option) *Adapter {
	if host == nil {
		panic("lifecycle: host cannot be nil")
	}
	a := &Adapter{
		host:     host,
		logger:   logging.Discard(),
		observer: nopObserver{},
		now:      time.Now,
		phase:    PhaseUnloaded,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Phase returns the current phase.
func (a *Adapter) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Session returns a snapshot of the current session.
func (a *Adapter) Session() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.session
	s.Phase = a.phase
	return s
}

// Load starts a new session, runs setup and acknowledges readiness to the
// host exactly once. A failed setup or acknowledgment is logged and returned
// as a *StartupFailure wrapping the original error, as is a panic that
// escapes Load itself. Calling Load on a live session is a no-op.
func (a *Adapter) Load(ctx context.Context) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.contain(ctx, HookLoad, CodeStartupFailure, &err)

	if a.phase.Live() {
		a.sessionLogger(HookLoad).Info(ctx, "plugin already loaded, ignoring load", "phase", a.phase.String())
		a.completed(HookLoad, OutcomeSkipped)
		return nil
	}

	now := a.now()
	a.session = Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		StartedAt: now,
	}
	log := a.sessionLogger(HookLoad)

	a.transition(PhaseLoading)
	log.Info(ctx, "plugin loading starting")

	if err := a.startup(ctx); err != nil {
		log.Fault(ctx, "plugin loading failed", oops.
			Code(CodeStartupFailure).
			In("lifecycle").
			With("hook", HookLoad.String()).
			With("session", a.session.ID.String()).
			Wrap(err))
		a.transition(PhaseFailed)
		a.completed(HookLoad, OutcomeFailed)
		return &StartupFailure{Session: a.session.ID, Err: err}
	}

	a.transition(PhaseReady)
	log.Info(ctx, "plugin loading succeeded")
	a.completed(HookLoad, OutcomeOK)
	return nil
}

func (a *Adapter) startup(ctx context.Context) error {
	if err := invoke(ctx, "setup", a.setup); err != nil {
		return err
	}
	if err := invoke(ctx, "ready acknowledgment", a.host.Ready); err != nil {
		return oops.In("lifecycle").Wrapf(err, "acknowledge readiness")
	}
	return nil
}

// FrontendReady runs the frontend initializer and moves a ready session to
// frontend_ready. It runs from any phase and never panics; faults are logged.
func (a *Adapter) FrontendReady(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	defer a.contain(ctx, HookFrontendReady, CodeNotificationFailure, nil)
	log := a.sessionLogger(HookFrontendReady)

	if !a.phase.Live() {
		log.Warn(ctx, "frontend ready before plugin loaded", "phase", a.phase.String())
	}
	log.Info(ctx, "frontend initialization starting")

	if err := invoke(ctx, "frontend initialization", a.frontendInit); err != nil {
		log.Fault(ctx, "frontend initialization failed", a.fault(CodeNotificationFailure, HookFrontendReady, err))
		a.completed(HookFrontendReady, OutcomeFailed)
		return
	}

	if a.phase == PhaseReady {
		a.transition(PhaseFrontendReady)
	}
	log.Info(ctx, "frontend initialization succeeded")
	a.completed(HookFrontendReady, OutcomeOK)
}

// Unload runs cleanup and ends the session. It is safe after a failed Load
// and a no-op when nothing is loaded. It never panics; faults are logged.
func (a *Adapter) Unload(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	defer a.contain(ctx, HookUnload, CodeTeardownFailure, nil)
	log := a.sessionLogger(HookUnload)

	if a.phase == PhaseUnloaded {
		log.Info(ctx, "plugin not loaded, nothing to unload")
		a.completed(HookUnload, OutcomeSkipped)
		return
	}

	a.transition(PhaseUnloading)
	log.Info(ctx, "plugin unloading starting")

	outcome := OutcomeOK
	if err := invoke(ctx, "cleanup", a.cleanup); err != nil {
		log.Fault(ctx, "plugin cleanup failed", a.fault(CodeTeardownFailure, HookUnload, err))
		outcome = OutcomeFailed
	}

	a.transition(PhaseUnloaded)
	a.session = Session{}
	log.Info(ctx, "plugin unloaded")
	a.completed(HookUnload, outcome)
}

func (a *Adapter) fault(code string, hook Hook, err error) error {
	return oops.
		Code(code).
		In("lifecycle").
		With("hook", hook.String()).
		With("session", a.sessionID()).
		Wrap(err)
}

// contain turns a panic that escaped the hook body into a logged fault and
// a failed outcome. The phase is settled so the next hook sees a consistent
// state. For Load, errp receives the StartupFailure returned to the host.
func (a *Adapter) contain(ctx context.Context, hook Hook, code string, errp *error) {
	rec := recover()
	if rec == nil {
		return
	}
	err := oops.Code(code).In("lifecycle").With("hook", hook.String()).Errorf("%s panicked: %v", hook, rec)
	a.sessionLogger(hook).Fault(ctx, "hook panicked", err)

	switch {
	case hook == HookLoad && a.phase != PhaseFailed:
		a.transition(PhaseFailed)
	case a.phase == PhaseUnloading:
		a.transition(PhaseUnloaded)
		a.session = Session{}
	}
	a.completed(hook, OutcomeFailed)

	if errp != nil {
		*errp = &StartupFailure{Session: a.session.ID, Err: err}
	}
}

func (a *Adapter) sessionLogger(hook Hook) *logging.Logger {
	return a.logger.With("hook", hook.String(), "session", a.sessionID())
}

func (a *Adapter) sessionID() string {
	if a.session.ID == (ulid.ULID{}) {
		return ""
	}
	return a.session.ID.String()
}

func (a *Adapter) transition(to Phase) {
	a.phase = to
	a.observe(func() { a.observer.PhaseChanged(to) })
}

func (a *Adapter) completed(hook Hook, outcome Outcome) {
	a.observe(func() { a.observer.HookCompleted(hook, outcome) })
}

func (a *Adapter) observe(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// invoke runs step, converting a panic into an error.
func invoke(ctx context.Context, name string, step Step) error {
	if step == nil {
		return nil
	}
	var err error
	if perr := oops.In("lifecycle").Recoverf(func() {
		err = step(ctx)
	}, "%s panicked", name); perr != nil {
		return perr
	}
	return err
}
