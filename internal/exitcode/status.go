// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exitcode

import (
	"errors"
	"io/fs"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Exit codes following shell conventions.
const (
	// CannotExecute is used if a file was found but could not be executed.
	CannotExecute = 126
	// NotFound is used if a file to execute does not exist.
	NotFound = 127
	// SignalOffset is added to the signal number for processes terminated by
	// a signal.
	SignalOffset = 128
)

// FromWaitStatus returns the exit code for the given wait status.
//
// Processes that were terminated by a signal get [SignalOffset] plus the
// signal number.
func FromWaitStatus(status unix.WaitStatus) int {
	switch {
	case status.Exited():
		return status.ExitStatus()
	case status.Signaled():
		return FromSignal(status.Signal())
	default:
		return -1
	}
}

// FromSignal returns the exit code for a process terminated by the given
// signal.
func FromSignal(sig unix.Signal) int {
	return SignalOffset + int(sig)
}

// FromStartError returns the exit code for an error that occurred while
// starting a process.
func FromStartError(err error) int {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, exec.ErrNotFound):
		return NotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.ENOEXEC),
		errors.Is(err, unix.EPERM), errors.Is(err, fs.ErrPermission):
		return CannotExecute
	default:
		return -1
	}
}
