// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/aibor/containit/internal/exitcode"
	"github.com/aibor/containit/internal/identity"
	"github.com/aibor/containit/supervisor"
)

// ServiceOptions modify how the service is started.
type ServiceOptions struct {
	// User is the user specification the service runs as, e.g. "jovyan",
	// "1000" or "1000:100". If empty, the identity is not changed.
	User string

	// PasswdPath and GroupPath are the user databases used for resolving
	// User. Defaults are used if empty.
	PasswdPath string
	GroupPath  string

	// Dir is the working directory of the service.
	Dir string
}

// WithService returns a setup [Func] that starts the service and waits for it
// to exit. It can be used with [Run].
//
// Path is looked up in PATH if it does not contain a slash. The service runs
// in the foreground, so all forwarded signals are delivered
// to it. Its exit code is returned as [exitcode.Error], unless it is 0.
func WithService(path string, args []string, opts ServiceOptions) Func {
	return func(state *State) error {
		if path == "" {
			return ErrNoService
		}

		if err := enterLaunchingService(state); err != nil {
			return err
		}

		// A termination signal might have arrived between the init tasks and
		// now. There is no process it could have been forwarded to.
		if err := checkTerminated(state); err != nil {
			return err
		}

		// The environment might have been changed by init tasks.
		resolved, err := exec.LookPath(path)
		if err != nil {
			code := exitcode.FromStartError(err)
			if code < 0 {
				code = exitcode.NotFound
			}

			return fmt.Errorf("launch service: %w: %w", err, exitcode.Error(code))
		}

		cmd := supervisorCommand(path, resolved, args, os.Environ())
		cmd.Dir = opts.Dir

		if opts.User != "" {
			creds, err := identity.Resolve(opts.User,
				valueOr(opts.PasswdPath, identity.DefaultPasswdPath),
				valueOr(opts.GroupPath, identity.DefaultGroupPath),
			)
			if err != nil {
				return err
			}

			if !creds.IsCurrent() {
				cmd.Credential = creds.SysCredential()
			}

			cmd.Env = mergeEnv(cmd.Env, creds.Env()...)

			slog.Debug("Service identity",
				slog.Int("uid", creds.UID),
				slog.Int("gid", creds.GID),
				slog.String("home", creds.Home),
			)
		}

		proc, err := state.Supervisor().Spawn(cmd, true)
		if err != nil {
			code := exitcode.FromStartError(err)
			if code < 0 {
				return fmt.Errorf("launch service: %w", err)
			}

			return fmt.Errorf("launch service: %w: %w", err, exitcode.Error(code))
		}

		slog.Info("Service started", slog.Int("pid", proc.Pid))

		if err := state.Transition(PhaseSupervising); err != nil {
			return err
		}

		<-proc.Done()

		code := proc.ExitCode()

		slog.Info("Service exited", slog.Int("exit_code", code))

		return exitcode.AsError(code)
	}
}

// enterLaunchingService transitions to [PhaseLaunchingService]. Without init
// tasks, [PhaseRunningInitTasks] is passed through, so the phases are always
// traversed in order.
func enterLaunchingService(state *State) error {
	if state.Phase() == PhaseStarting {
		if err := state.Transition(PhaseRunningInitTasks); err != nil {
			return err
		}
	}

	return state.Transition(PhaseLaunchingService)
}

func supervisorCommand(name, path string, args, env []string) supervisor.Command {
	return supervisor.Command{
		Name: name,
		Path: path,
		Args: args,
		Env:  env,
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
