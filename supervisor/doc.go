// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package supervisor implements the process management primitive of an init
// process: it adopts orphaned processes, reaps every child that exits,
// forwards signals to the supervised foreground process and terminates what
// is left on shutdown.
//
// A [Supervisor] must be the only party waiting for child processes within
// the program. Processes must be started with [Supervisor.Spawn] instead of
// [os/exec], since [exec.Cmd.Wait] would race with the reaper for the exit
// status.
package supervisor
