// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launcher_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aibor/containit/internal/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name            string
		args            []string
		env             []string
		expectedCommand []string
		expectedDir     string
	}{
		{
			name:            "default",
			expectedCommand: []string{"jupyter", "lab"},
		},
		{
			name:            "default with args",
			env:             []string{launcher.ArgsVar + "=--port=9999 --no-browser"},
			expectedCommand: []string{"jupyter", "lab", "--port=9999", "--no-browser"},
		},
		{
			name: "command from env",
			env: []string{
				launcher.CommandVar + "=jupyter notebook",
				launcher.DirVar + "=/home/jovyan/work",
			},
			expectedCommand: []string{"jupyter", "notebook"},
			expectedDir:     "/home/jovyan/work",
		},
		{
			name:            "command from args",
			args:            []string{"python", "-m", "http.server"},
			env:             []string{launcher.CommandVar + "=jupyter notebook"},
			expectedCommand: []string{"python", "-m", "http.server"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := launcher.FromEnv(tt.args, tt.env)

			assert.Equal(t, tt.expectedCommand, spec.Command, "command")
			assert.Equal(t, tt.expectedDir, spec.Dir, "dir")
			assert.Equal(t, tt.env, spec.Env, "env")
		})
	}
}

func TestSpec_Resolve(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "workload")
	require.NoError(t, os.WriteFile(program, []byte("#!/bin/sh\n"), 0o755))

	tests := []struct {
		name     string
		spec     launcher.Spec
		expected string
		err      error
	}{
		{
			name: "empty",
			err:  launcher.ErrNoCommand,
		},
		{
			name:     "absolute path",
			spec:     launcher.Spec{Command: []string{program}},
			expected: program,
		},
		{
			name: "lookup in workload PATH",
			spec: launcher.Spec{
				Command: []string{"workload"},
				Env:     []string{"PATH=" + dir},
			},
			expected: program,
		},
		{
			name: "not found",
			spec: launcher.Spec{
				Command: []string{"workload-missing"},
				Env:     []string{"PATH=" + dir},
			},
			err: exec.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := tt.spec.Resolve()
			require.ErrorIs(t, err, tt.err)

			assert.Equal(t, tt.expected, actual)
		})
	}
}
