// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// IsPidOne returns true if the running process has PID 1.
func IsPidOne() bool {
	return unix.Getpid() == 1
}

func setChildSubreaper() error {
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("set child subreaper: %w", err)
	}

	return nil
}

// childPids returns the IDs of all direct children of the running process.
func childPids() ([]int, error) {
	files, err := filepath.Glob("/proc/self/task/*/children")
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}

	pids := []int{}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			// Threads may be gone already.
			continue
		}

		for _, field := range bytes.Fields(content) {
			pid, err := strconv.Atoi(string(field))
			if err != nil {
				continue
			}

			pids = append(pids, pid)
		}
	}

	return pids, nil
}

// isControllingTerminal returns true if the file is the controlling terminal
// of the running process. Querying the foreground process group fails for
// any other file.
func isControllingTerminal(file *os.File) bool {
	if file == nil {
		return false
	}

	_, err := unix.IoctlGetInt(int(file.Fd()), unix.TIOCGPGRP)

	return err == nil
}
