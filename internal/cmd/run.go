// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/aibor/containit/internal/config"
	"github.com/aibor/containit/internal/exitcode"
)

const name = "containit"

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func handleParseArgsError(err error) int {
	slog.Error(err.Error())
	slog.Info("Run with --help for usage")

	return -1
}

func handleRunError(err error) int {
	code, isExitErr := exitcode.From(err)
	if !isExitErr {
		code = -1
	}

	slog.Error(err.Error(), slog.Int("exit_code", code))

	return code
}

// Run is the main entry point for the CLI command. It returns the exit code
// the process should exit with.
func Run(ctx context.Context, args []string, stdio IO) int {
	// Until the configuration is read.
	setupLogging(stdio.Stderr, slog.LevelInfo, config.FormatText)

	var exitCode int

	root := newRootCommand(stdio, os.Environ(), &exitCode)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		if errors.Is(err, &ParseArgsError{}) {
			return handleParseArgsError(err)
		}

		return handleRunError(err)
	}

	return exitCode
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}

func version() string {
	buildInfo, err := getBuildInfo()
	if err != nil || buildInfo.Main.Version == "" {
		return "unknown"
	}

	return buildInfo.Main.Version
}
