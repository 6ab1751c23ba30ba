// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package launcher starts the long-running workload in the foreground.
//
// The launcher replaces itself with the workload, so the process the init
// supervises is the workload itself and its exit status is propagated
// unchanged.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sys/unix"
)

// Environment variables the launcher is configured with.
const (
	CommandVar = "CONTAINIT_SERVICE_CMD"
	ArgsVar    = "CONTAINIT_SERVICE_ARGS"
	DirVar     = "CONTAINIT_SERVICE_DIR"
)

// ErrNoCommand is returned if no workload command is configured.
var ErrNoCommand = errors.New("no command")

// DefaultCommand is the workload started if nothing else is configured.
func DefaultCommand() []string {
	return []string{"jupyter", "lab"}
}

// Spec describes the workload.
type Spec struct {
	// Command is the workload program followed by its arguments.
	Command []string

	// Dir is the working directory. If empty, it is not changed.
	Dir string

	// Env is the environment of the workload.
	Env []string
}

// FromEnv builds the [Spec] from the given arguments and environment.
//
// If args are given, they are the command. Otherwise the command is read
// from [CommandVar] and falls back to [DefaultCommand]. Arguments in
// [ArgsVar] are appended in any case.
func FromEnv(args []string, environ []string) Spec {
	env := envMap(environ)

	command := slices.Clone(args)
	if len(command) == 0 {
		command = strings.Fields(env[CommandVar])
	}

	if len(command) == 0 {
		command = DefaultCommand()
	}

	command = append(command, strings.Fields(env[ArgsVar])...)

	return Spec{
		Command: command,
		Dir:     env[DirVar],
		Env:     environ,
	}
}

// Resolve looks up the program in the PATH of the [Spec]'s environment,
// unless it contains a slash.
func (s Spec) Resolve() (string, error) {
	if len(s.Command) == 0 || s.Command[0] == "" {
		return "", ErrNoCommand
	}

	program := s.Command[0]
	if strings.Contains(program, "/") {
		return program, nil
	}

	for _, dir := range filepath.SplitList(envMap(s.Env)["PATH"]) {
		if dir == "" {
			dir = "."
		}

		path := filepath.Join(dir, program)

		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			return path, nil
		}
	}

	return "", fmt.Errorf("lookup %s: %w", program, exec.ErrNotFound)
}

// Exec replaces the running process with the workload. It only returns in
// case of error.
func (s Spec) Exec() error {
	path, err := s.Resolve()
	if err != nil {
		return err
	}

	if s.Dir != "" {
		if err := os.Chdir(s.Dir); err != nil {
			return fmt.Errorf("change dir: %w", err)
		}
	}

	slog.Debug("Executing workload",
		slog.String("path", path),
		slog.Any("args", s.Command[1:]),
	)

	if err := unix.Exec(path, s.Command, s.Env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}

	return nil
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if found {
			env[key] = value
		}
	}

	return env
}
