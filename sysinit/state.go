// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aibor/containit/supervisor"
)

// CleanupFunc is a function registered with [State.Cleanup].
type CleanupFunc func() error

// State is passed to every [Func] run by [Run].
type State struct {
	ctx        context.Context //nolint:containedctx
	supervisor *supervisor.Supervisor
	phase      Phase
	cleanupFns []CleanupFunc
}

func newState(ctx context.Context, sup *supervisor.Supervisor) *State {
	return &State{
		ctx:        ctx,
		supervisor: sup,
		phase:      PhaseStarting,
	}
}

// Context returns the context of the init process.
func (s *State) Context() context.Context {
	return s.ctx
}

// Supervisor returns the process supervisor. Child processes must be started
// with it.
func (s *State) Supervisor() *supervisor.Supervisor {
	return s.supervisor
}

// Phase returns the current [Phase].
func (s *State) Phase() Phase {
	return s.phase
}

// Transition enters the given [Phase]. It fails with [ErrInvalidTransition]
// if the phase can not follow the current one.
func (s *State) Transition(next Phase) error {
	if !s.phase.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, next)
	}

	slog.Debug("Phase transition",
		slog.String("from", s.phase.String()),
		slog.String("phase", next.String()),
	)

	s.phase = next

	return nil
}

// Cleanup registers a function that is run once all [Func]s are done. They
// run in reverse order of registration.
func (s *State) Cleanup(fn CleanupFunc) {
	s.cleanupFns = append(s.cleanupFns, fn)
}

func (s *State) doCleanup() {
	slices.Reverse(s.cleanupFns)

	for _, fn := range s.cleanupFns {
		if err := fn(); err != nil {
			slog.Error("Cleanup failed", slog.Any("error", err))
		}
	}

	s.cleanupFns = nil
}
