// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"log/slog"

	"github.com/aibor/containit/internal/exitcode"
)

// ExitHandler is passed to [Run] and called with the first error a [Func]
// returns or nil if all [Func]s ran without error.
type ExitHandler func(err error)

// ExitLogger returns an [ExitHandler] that logs the exit code and the error,
// unless the error is only a non-zero exit code.
func ExitLogger() ExitHandler {
	return func(err error) {
		code, isExitErr := exitcode.From(err)

		var taskErr *TaskError

		switch {
		case err == nil:
		case errors.As(err, &taskErr):
			slog.Error("Startup aborted", slog.Any("error", err))
		case !isExitErr || errors.Is(err, ErrTerminated):
			slog.Error(err.Error())
		}

		slog.Info("Exiting", slog.Int("exit_code", code))
	}
}
