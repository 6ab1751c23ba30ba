// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command containit is an init process for containers.
package main

import (
	"context"
	"os"

	"github.com/aibor/containit/internal/cmd"
)

func main() {
	// Signals are handled by the supervisor, so they must not cancel the
	// context.
	exitCode := cmd.Run(context.Background(), os.Args[1:], cmd.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})

	os.Exit(exitCode)
}
