// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const (
	// DefaultShutdownGrace is the time remaining processes have to terminate
	// after they received SIGTERM on shutdown.
	DefaultShutdownGrace = 5 * time.Second

	// Buffer for received signals, so bursts are not coalesced.
	signalBufferSize = 32

	killWait     = time.Second
	pollInterval = 10 * time.Millisecond
)

// Config defines the behavior of a [Supervisor].
type Config struct {
	// Signals are forwarded to the foreground process.
	Signals []unix.Signal

	// ProcessGroup starts each process in its own process group and sends
	// signals to the whole group instead of the process only.
	ProcessGroup bool

	// ShutdownGrace is the time processes left on shutdown have between
	// SIGTERM and SIGKILL.
	ShutdownGrace time.Duration
}

// DefaultConfig returns the default [Config].
func DefaultConfig() Config {
	return Config{
		Signals:       DefaultSignals(),
		ProcessGroup:  true,
		ShutdownGrace: DefaultShutdownGrace,
	}
}

// Supervisor is the process supervisor of an init process.
//
// It must be started with [Supervisor.Start] before processes are spawned and
// stopped with [Supervisor.Stop] when done.
type Supervisor struct {
	cfg    Config
	pidOne bool

	mu         sync.Mutex
	children   map[int]*Process
	groups     map[int]struct{}
	foreground *Process
	terminated unix.Signal
	orphans    int

	signals chan os.Signal
	sigchld chan os.Signal
	cancel  context.CancelFunc
	loops   *errgroup.Group

	wait4        func(int, *unix.WaitStatus, int, *unix.Rusage) (int, error)
	kill         func(int, unix.Signal) error
	listChildren func() ([]int, error)
	getpgid      func(int) (int, error)
}

// New creates a new [Supervisor] with the given [Config].
func New(cfg Config) *Supervisor {
	return &Supervisor{
		cfg:          cfg,
		pidOne:       IsPidOne(),
		children:     make(map[int]*Process),
		groups:       make(map[int]struct{}),
		signals:      make(chan os.Signal, signalBufferSize),
		sigchld:      make(chan os.Signal, 1),
		wait4:        unix.Wait4,
		kill:         unix.Kill,
		listChildren: childPids,
		getpgid:      unix.Getpgid,
	}
}

// Start makes the supervisor responsible for the process tree.
//
// Unless the process has PID 1, it registers as child subreaper, so orphaned
// descendants are re-parented to it. It installs handlers for SIGCHLD and
// the forwarded signals and starts the reap and forward loops.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.pidOne {
		if err := setChildSubreaper(); err != nil {
			return err
		}

		slog.Debug("Not running as PID 1, registered as child subreaper")
	}

	signal.Notify(s.sigchld, unix.SIGCHLD)

	if len(s.cfg.Signals) > 0 {
		notify := make([]os.Signal, len(s.cfg.Signals))
		for idx, sig := range s.cfg.Signals {
			notify[idx] = sig
		}

		signal.Notify(s.signals, notify...)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.loops, ctx = errgroup.WithContext(ctx)

	s.loops.Go(func() error { return s.reapLoop(ctx) })
	s.loops.Go(func() error { return s.forwardLoop(ctx) })

	// Children might have exited before the handler was installed.
	s.Reap()

	return nil
}

// Stop stops the signal handling and the background loops.
func (s *Supervisor) Stop() error {
	if s.loops == nil {
		return ErrNotStarted
	}

	signal.Stop(s.signals)
	signal.Stop(s.sigchld)
	s.cancel()

	return s.loops.Wait() //nolint:wrapcheck
}

// Spawn starts the given [Command] as child process.
//
// If foreground is true, the process becomes the target for forwarded
// signals until it exits. With [Config.ProcessGroup] set, its process group
// also becomes the foreground group of the controlling terminal, if stdin is
// one.
func (s *Supervisor) Spawn(cmd Command, foreground bool) (*Process, error) {
	files := cmd.files()
	attr := &os.ProcAttr{
		Dir:   cmd.Dir,
		Env:   cmd.Env,
		Files: files,
		Sys: &syscall.SysProcAttr{
			Setpgid:    s.cfg.ProcessGroup,
			Credential: cmd.Credential,
		},
	}

	if foreground && s.cfg.ProcessGroup && isControllingTerminal(files[0]) {
		// Ctty is the descriptor in this process, the ioctl runs before the
		// child's descriptors are rearranged.
		attr.Sys.Foreground = true
		attr.Sys.Ctty = int(files[0].Fd())
	}

	// Hold the lock across process creation, so the reaper can not dispatch
	// the exit status before the process is registered.
	s.mu.Lock()
	defer s.mu.Unlock()

	osProc, err := os.StartProcess(cmd.Path, cmd.argv(), attr)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.name(), err)
	}

	// Release resets the Pid field.
	pid := osProc.Pid

	// The exit status is collected by the reaper, never by [os.Process.Wait].
	_ = osProc.Release()

	proc := newProcess(pid, cmd.name(), s.cfg.ProcessGroup)
	s.children[proc.Pid] = proc

	if proc.Group {
		s.groups[proc.Pid] = struct{}{}
	}

	if foreground {
		s.foreground = proc
	}

	slog.Debug("Process started",
		slog.String("name", proc.Name),
		slog.Int("pid", proc.Pid),
		slog.Bool("foreground", foreground),
	)

	return proc, nil
}

// Signal sends the given signal to the process, or its process group if it
// leads one. It is not an error if the process is already gone.
func (s *Supervisor) Signal(proc *Process, sig unix.Signal) error {
	err := s.kill(proc.target(), sig)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal %s to %s: %w", unix.SignalName(sig), proc.Name, err)
	}

	return nil
}

// Forward forwards the given signal to the foreground process.
//
// Termination signals are remembered, see [Supervisor.Termination]. If there
// is no foreground process [ErrNoProcess] is returned.
func (s *Supervisor) Forward(sig unix.Signal) error {
	s.mu.Lock()
	target := s.foreground

	if IsTermination(sig) && s.terminated == 0 {
		s.terminated = sig
	}
	s.mu.Unlock()

	if target == nil {
		return fmt.Errorf("%w for %s", ErrNoProcess, unix.SignalName(sig))
	}

	slog.Debug("Forwarding signal",
		slog.String("signal", unix.SignalName(sig)),
		slog.String("name", target.Name),
		slog.Int("pid", target.Pid),
	)

	return s.Signal(target, sig)
}

// Termination returns the first termination signal that has been received,
// if any.
func (s *Supervisor) Termination() (unix.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.terminated, s.terminated != 0
}

// Orphans returns the number of reaped processes that were not started by
// the supervisor.
func (s *Supervisor) Orphans() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orphans
}

// Shutdown terminates all remaining child processes and reaps them.
//
// Remaining processes receive SIGTERM first. Processes still alive after the
// configured grace period receive SIGKILL. Returns [ErrChildrenLeft] if there
// are still children left after that.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if _, more := s.Reap(); !more {
		return nil
	}

	slog.Info("Terminating remaining processes")
	s.signalRemaining(unix.SIGTERM)

	if s.awaitNoChildren(ctx, s.cfg.ShutdownGrace) {
		return nil
	}

	slog.Warn("Processes left after grace period, killing them",
		slog.Duration("grace", s.cfg.ShutdownGrace))
	s.signalRemaining(unix.SIGKILL)

	if s.awaitNoChildren(ctx, killWait) {
		return nil
	}

	return ErrChildrenLeft
}

func (s *Supervisor) awaitNoChildren(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if _, more := s.Reap(); !more {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) signalRemaining(sig unix.Signal) {
	// As PID 1, all processes in the namespace are ours.
	if s.pidOne {
		if err := s.kill(-1, sig); err != nil && !errors.Is(err, unix.ESRCH) {
			slog.Error("Failed to signal all processes", slog.Any("error", err))
		}

		return
	}

	targets := map[int]struct{}{}

	pids, err := s.listChildren()
	if err != nil {
		slog.Warn("Failed to list child processes", slog.Any("error", err))
	}

	s.mu.Lock()
	// Groups of exited leaders are only signaled while a child of ours is
	// still a member.
	for pgid := range s.groups {
		if _, running := s.children[pgid]; running {
			targets[-pgid] = struct{}{}
		}
	}

	for _, pid := range pids {
		targets[pid] = struct{}{}

		pgid, err := s.getpgid(pid)
		if err != nil {
			continue
		}

		if _, ours := s.groups[pgid]; ours {
			targets[-pgid] = struct{}{}
		}
	}
	s.mu.Unlock()

	for target := range targets {
		err := s.kill(target, sig)
		if err != nil && !errors.Is(err, unix.ESRCH) {
			slog.Warn("Failed to signal process",
				slog.Int("target", target),
				slog.Any("error", err),
			)
		}
	}
}
