// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultSignals returns the signals forwarded to the foreground process by
// default.
func DefaultSignals() []unix.Signal {
	return []unix.Signal{
		unix.SIGHUP,
		unix.SIGINT,
		unix.SIGQUIT,
		unix.SIGTERM,
		unix.SIGUSR1,
		unix.SIGUSR2,
		unix.SIGWINCH,
	}
}

// IsTermination returns true for signals that ask a process to terminate.
func IsTermination(sig unix.Signal) bool {
	switch sig {
	case unix.SIGHUP, unix.SIGINT, unix.SIGQUIT, unix.SIGTERM:
		return true
	default:
		return false
	}
}

// ParseSignal parses a signal name like "TERM", "SIGTERM" or a signal
// number like "15".
//
// Signals that can not be caught or are used by the supervisor itself are
// rejected.
func ParseSignal(name string) (unix.Signal, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	var sig unix.Signal

	if num, err := strconv.Atoi(name); err == nil {
		sig = unix.Signal(num)
		if unix.SignalName(sig) == "" {
			sig = 0
		}
	} else {
		if !strings.HasPrefix(name, "SIG") {
			name = "SIG" + name
		}

		sig = unix.SignalNum(name)
	}

	if sig == 0 || !forwardable(sig) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSignal, name)
	}

	return sig, nil
}

// ParseSignals parses all given signal names with [ParseSignal].
func ParseSignals(names []string) ([]unix.Signal, error) {
	signals := make([]unix.Signal, 0, len(names))

	for _, name := range names {
		sig, err := ParseSignal(name)
		if err != nil {
			return nil, err
		}

		if !slices.Contains(signals, sig) {
			signals = append(signals, sig)
		}
	}

	return signals, nil
}

func forwardable(sig unix.Signal) bool {
	switch sig {
	case unix.SIGKILL, unix.SIGSTOP, unix.SIGCHLD:
		return false
	case unix.SIGSEGV, unix.SIGBUS, unix.SIGFPE, unix.SIGILL, unix.SIGTRAP:
		return false
	default:
		return true
	}
}
