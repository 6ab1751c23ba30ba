// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/aibor/containit/internal/exitcode"
	"github.com/aibor/containit/internal/launcher"
	"github.com/spf13/cobra"
)

const launchCommandName = "launch"

const launchLong = `Replace the process with the service workload.

The workload is the given command. Without arguments, it is read from
` + launcher.CommandVar + ` and falls back to "jupyter lab". Arguments in
` + launcher.ArgsVar + ` are appended. If ` + launcher.DirVar + ` is set, the
workload is started in that directory.

The launcher does not fork, so the exit status of the workload is the one of
the launcher.`

func newLaunchCommand(environ []string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   launchCommandName + " [command [args...]]",
		Short: "Replace the process with the service workload",
		Long:  launchLong,
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			spec := launcher.FromEnv(args, environ)

			// Only returns on failure.
			err := spec.Exec()

			code := exitcode.FromStartError(err)
			if code < 0 {
				code = exitcode.CannotExecute
			}

			return fmt.Errorf("launch: %w: %w", err, exitcode.Error(code))
		},
	}

	cmd.Flags().SetInterspersed(false)

	return cmd
}
