// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import "errors"

var (
	// ErrNotStarted is returned if the [Supervisor] is used before
	// [Supervisor.Start] was called.
	ErrNotStarted = errors.New("supervisor not started")

	// ErrNoProcess is returned if a signal is forwarded while there is no
	// foreground process.
	ErrNoProcess = errors.New("no foreground process")

	// ErrInvalidSignal is returned if a signal name can not be parsed.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrChildrenLeft is returned by [Supervisor.Shutdown] if child processes
	// are still alive after they have been killed.
	ErrChildrenLeft = errors.New("child processes left")
)
