// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"
)

func (s *Supervisor) reapLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.sigchld:
			s.Reap()
		}
	}
}

// Reap collects the exit status of all child processes that have exited.
//
// It does not block. It returns the number of reaped processes and if there
// are children left that are still running.
func (s *Supervisor) Reap() (int, bool) {
	reaped := 0

	for {
		var status unix.WaitStatus

		pid, err := s.wait4(-1, &status, unix.WNOHANG, nil)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return reaped, false
		case err != nil:
			slog.Error("Failed to wait for children", slog.Any("error", err))
			return reaped, true
		case pid <= 0:
			return reaped, true
		}

		s.dispatch(pid, status)
		reaped++
	}
}

func (s *Supervisor) dispatch(pid int, status unix.WaitStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proc, exists := s.children[pid]
	if !exists {
		s.orphans++

		slog.Debug("Reaped orphan", slog.Int("pid", pid))

		return
	}

	delete(s.children, pid)

	if s.foreground == proc {
		s.foreground = nil
	}

	proc.finish(status)

	slog.Debug("Process exited",
		slog.String("name", proc.Name),
		slog.Int("pid", pid),
		slog.Int("exit_code", proc.ExitCode()),
	)
}
