// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"os"
	"syscall"

	"github.com/aibor/containit/internal/exitcode"
	"golang.org/x/sys/unix"
)

// Command describes a process to be started by [Supervisor.Spawn].
type Command struct {
	// Name is used for logging only. If empty, Path is used.
	Name string

	// Path is the path of the executable.
	Path string

	// Args are the arguments passed to the process, not including the
	// program name. The program name is set to Path.
	Args []string

	// Env is the environment of the process. If nil, the supervisor's
	// environment is used.
	Env []string

	// Dir is the working directory of the process. If empty, the
	// supervisor's working directory is used.
	Dir string

	// Credential sets the user and group identity of the process. If nil,
	// the supervisor's identity is kept.
	Credential *syscall.Credential

	// Stdio files. If nil, the supervisor's standard files are used.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

func (c *Command) name() string {
	if c.Name != "" {
		return c.Name
	}

	return c.Path
}

func (c *Command) argv() []string {
	return append([]string{c.Path}, c.Args...)
}

func (c *Command) files() []*os.File {
	files := []*os.File{c.Stdin, c.Stdout, c.Stderr}
	defaults := []*os.File{os.Stdin, os.Stdout, os.Stderr}

	for idx, file := range files {
		if file == nil {
			files[idx] = defaults[idx]
		}
	}

	return files
}

// Process is a child process started by a [Supervisor].
//
// Its exit status is collected by the supervisor's reaper.
type Process struct {
	// Pid is the process ID.
	Pid int

	// Name is the name of the process used for logging.
	Name string

	// Group is true if the process leads its own process group.
	Group bool

	done   chan struct{}
	status unix.WaitStatus
}

func newProcess(pid int, name string, group bool) *Process {
	return &Process{
		Pid:   pid,
		Name:  name,
		Group: group,
		done:  make(chan struct{}),
	}
}

func (p *Process) finish(status unix.WaitStatus) {
	p.status = status
	close(p.done)
}

// Done returns a channel that is closed once the process has exited and was
// reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code of the process. Processes terminated by a
// signal have 128 plus the signal number. It must only be called after
// [Process.Done] is closed.
func (p *Process) ExitCode() int {
	return exitcode.FromWaitStatus(p.status)
}

// Wait blocks until the process has exited and returns its exit code.
//
// It returns early with the context's error if the context is done first.
func (p *Process) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		return p.ExitCode(), nil
	case <-ctx.Done():
		return -1, ctx.Err() //nolint:wrapcheck
	}
}

func (p *Process) target() int {
	if p.Group {
		return -p.Pid
	}

	return p.Pid
}
