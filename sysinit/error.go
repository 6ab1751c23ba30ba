// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"

	"github.com/aibor/containit/internal/exitcode"
	"golang.org/x/sys/unix"
)

var (
	// ErrPanic is returned if a [Func] panicked.
	ErrPanic = errors.New("function panicked")

	// ErrTerminated is returned if startup is aborted because a termination
	// signal was received.
	ErrTerminated = errors.New("terminated")

	// ErrInvalidTransition is returned if a [Func] tries to enter a [Phase]
	// that can not follow the current one.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrTaskTimeout is returned if an init task did not finish in time.
	ErrTaskTimeout = errors.New("task timed out")

	// ErrNoService is returned if no service command is given.
	ErrNoService = errors.New("no service command")
)

// TaskError is returned if an init task did not succeed.
type TaskError struct {
	// Task is the name of the failed task.
	Task string

	// ExitCode is the exit code of the task.
	ExitCode int

	// Err is set if the task could not be run at all.
	Err error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("init task %s: %v", e.Task, e.Err)
	}

	return fmt.Sprintf("init task %s failed with exit code %d", e.Task, e.ExitCode)
}

func (*TaskError) Is(other error) bool {
	_, ok := other.(*TaskError)
	return ok
}

// Unwrap returns the exit code as [exitcode.Error] and the cause, if any.
func (e *TaskError) Unwrap() []error {
	errs := []error{exitcode.Error(e.ExitCode)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

func terminatedError(sig unix.Signal) error {
	return fmt.Errorf("%w by %s: %w",
		ErrTerminated,
		unix.SignalName(sig),
		exitcode.Error(exitcode.FromSignal(sig)),
	)
}
