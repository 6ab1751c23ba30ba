// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exitcode_test

import (
	"fmt"
	"io/fs"
	"os/exec"
	"testing"

	"github.com/aibor/containit/internal/exitcode"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestFromWaitStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   unix.WaitStatus
		expected int
	}{
		{
			name:     "exited zero",
			status:   unix.WaitStatus(0),
			expected: 0,
		},
		{
			name:     "exited non-zero",
			status:   unix.WaitStatus(3 << 8),
			expected: 3,
		},
		{
			name:     "killed by SIGTERM",
			status:   unix.WaitStatus(unix.SIGTERM),
			expected: 143,
		},
		{
			name:     "killed by SIGKILL",
			status:   unix.WaitStatus(unix.SIGKILL),
			expected: 137,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitcode.FromWaitStatus(tt.status))
		})
	}
}

func TestFromStartError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "not found",
			err:      fmt.Errorf("start: %w", unix.ENOENT),
			expected: exitcode.NotFound,
		},
		{
			name:     "lookup not found",
			err:      exec.ErrNotFound,
			expected: exitcode.NotFound,
		},
		{
			name:     "permission denied",
			err:      fmt.Errorf("start: %w", unix.EACCES),
			expected: exitcode.CannotExecute,
		},
		{
			name:     "lookup permission denied",
			err:      &exec.Error{Name: "./x", Err: fs.ErrPermission},
			expected: exitcode.CannotExecute,
		},
		{
			name:     "exec format",
			err:      unix.ENOEXEC,
			expected: exitcode.CannotExecute,
		},
		{
			name:     "other",
			err:      assert.AnError,
			expected: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitcode.FromStartError(tt.err))
		})
	}
}
