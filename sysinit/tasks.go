// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aibor/containit/internal/exitcode"
	"github.com/aibor/containit/internal/inittask"
	"golang.org/x/sys/unix"
)

// TaskOptions modify how init tasks are run.
type TaskOptions struct {
	// Timeout limits the run time of each task. Zero means no limit.
	Timeout time.Duration

	// EnvDir is the directory the environment hand-off file is created in.
	// If empty, the default directory for temporary files is used.
	EnvDir string
}

// WithInitTasks returns a setup [Func] that runs the init tasks found in the
// given directory. It can be used with [Run].
func WithInitTasks(dir string, opts TaskOptions) Func {
	return func(state *State) error {
		if err := state.Transition(PhaseRunningInitTasks); err != nil {
			return err
		}

		tasks, err := inittask.Discover(dir)
		if err != nil {
			return fmt.Errorf("discover init tasks: %w", err)
		}

		slog.Info("Running init tasks",
			slog.String("dir", dir),
			slog.Int("count", len(tasks)),
		)

		return RunInitTasks(state, tasks, opts)
	}
}

// RunInitTasks runs the given tasks one after the other in the given order.
//
// Each task runs in the foreground, so forwarded signals reach it. The first
// task that does not exit with 0 stops the execution and a [*TaskError] is
// returned. If a termination signal is received, no further task is started.
//
// Environment variables a task writes into the file named by
// [inittask.EnvFileVar] are set for all following tasks and the service.
func RunInitTasks(state *State, tasks []inittask.Task, opts TaskOptions) error {
	if len(tasks) == 0 {
		return nil
	}

	envFile, err := inittask.NewEnvFile(opts.EnvDir)
	if err != nil {
		return err
	}

	defer func() {
		if err := envFile.Remove(); err != nil {
			slog.Warn("Failed to remove env file", slog.Any("error", err))
		}
	}()

	for _, task := range tasks {
		if err := checkTerminated(state); err != nil {
			return err
		}

		if err := runTask(state, task, envFile, opts.Timeout); err != nil {
			return err
		}

		if err := checkTerminated(state); err != nil {
			return err
		}

		vars, err := envFile.Consume()
		if err != nil {
			return &TaskError{Task: task.Name, ExitCode: 1, Err: err}
		}

		if err := SetEnv(vars); err != nil {
			return &TaskError{Task: task.Name, ExitCode: 1, Err: err}
		}
	}

	return nil
}

func runTask(
	state *State,
	task inittask.Task,
	envFile *inittask.EnvFile,
	timeout time.Duration,
) error {
	path, args := task.Argv()

	slog.Info("Running init task", slog.String("task", task.Name))

	start := time.Now()

	proc, err := state.Supervisor().Spawn(supervisorCommand(
		task.Name,
		path,
		args,
		mergeEnv(os.Environ(), envFile.Env()),
	), true)
	if err != nil {
		code := exitcode.FromStartError(err)
		if code < 0 {
			code = exitcode.CannotExecute
		}

		return &TaskError{Task: task.Name, ExitCode: code, Err: err}
	}

	ctx := context.WithoutCancel(state.Context())

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	code, err := proc.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("Init task timed out, killing it",
			slog.String("task", task.Name),
			slog.Duration("timeout", timeout),
		)

		if err := state.Supervisor().Signal(proc, unix.SIGKILL); err != nil {
			return &TaskError{Task: task.Name, ExitCode: 1, Err: err}
		}

		<-proc.Done()

		return &TaskError{Task: task.Name, ExitCode: proc.ExitCode(), Err: ErrTaskTimeout}
	}

	slog.Debug("Init task done",
		slog.String("task", task.Name),
		slog.Int("exit_code", code),
		slog.Duration("duration", time.Since(start)),
	)

	if code != 0 {
		return &TaskError{Task: task.Name, ExitCode: code}
	}

	return nil
}

func checkTerminated(state *State) error {
	if sig, terminated := state.Supervisor().Termination(); terminated {
		return terminatedError(sig)
	}

	return nil
}
