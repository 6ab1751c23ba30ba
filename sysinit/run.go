// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aibor/containit/internal/exitcode"
	"github.com/aibor/containit/supervisor"
)

// Func is a function run by [Run].
type Func func(*State) error

// Run is the entry point for an actual init process.
//
// It starts the given [supervisor.Supervisor], runs the given [Func]s and
// shuts the supervisor down, so no child process is left. It returns the exit
// code the process should exit with.
//
// The given [Func]s are run in the order given. The first one that fails stops
// the execution, the remaining ones are not run. They must not terminate the
// program (e.g. by [os.Exit]). Panics are recovered from before the
// [ExitHandler] runs.
//
// The given [ExitHandler] is run after shutdown with the error of the first
// failed [Func], or nil if all succeeded.
//
// A typical example for a container would be:
//
//	exitCode := Run(ctx, supervisor.New(supervisor.DefaultConfig()),
//		ExitLogger(),
//		[WithEnv]([EnvVars]{"PATH": "/opt/conda/bin:/usr/bin:/bin"}),
//		[WithInitTasks]("/usr/local/bin/start.d", TaskOptions{}),
//		[WithService]("/usr/local/bin/start-service", nil, ServiceOptions{
//			User: "jovyan",
//		}),
//	)
//	os.Exit(exitCode)
func Run(
	ctx context.Context,
	sup *supervisor.Supervisor,
	exitHandler ExitHandler,
	funcs ...Func,
) int {
	if !supervisor.IsPidOne() {
		slog.Warn("Not running as PID 1")
	}

	state := newState(ctx, sup)

	if err := sup.Start(ctx); err != nil {
		err = fmt.Errorf("start supervisor: %w", err)
		exitHandler(err)

		code, _ := exitcode.From(err)

		return code
	}

	err := run(state, funcs)

	exitHandler(err)

	code, _ := exitcode.From(err)

	return code
}

func run(state *State, funcs []Func) error {
	err := runFuncs(state, funcs)

	state.doCleanup()

	if transErr := state.Transition(PhaseShuttingDown); transErr != nil {
		slog.Error("Unexpected phase", slog.Any("error", transErr))
	}

	sup := state.Supervisor()

	if shutdownErr := sup.Shutdown(context.WithoutCancel(state.Context())); shutdownErr != nil {
		slog.Error("Shutdown incomplete", slog.Any("error", shutdownErr))
	}

	if stopErr := sup.Stop(); stopErr != nil {
		slog.Error("Stop supervisor", slog.Any("error", stopErr))
	}

	_ = state.Transition(PhaseTerminated)

	return err
}

func runFuncs(state *State, funcs []Func) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}

		if recoveredErr, ok := rec.(error); ok {
			err = fmt.Errorf("%w: %w", ErrPanic, recoveredErr)
		} else {
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()

	for _, fn := range funcs {
		if err = fn(state); err != nil {
			return err
		}
	}

	return nil
}
