// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEnv(t *testing.T) {
	t.Setenv("CONTAINIT_TESTVAR1", "")
	t.Setenv("CONTAINIT_TESTVAR2", "")

	err := SetEnv(EnvVars{
		"CONTAINIT_TESTVAR1": "42",
		"CONTAINIT_TESTVAR2": "269",
	})
	require.NoError(t, err)

	assert.Equal(t, "42", os.Getenv("CONTAINIT_TESTVAR1"), "testvar1")
	assert.Equal(t, "269", os.Getenv("CONTAINIT_TESTVAR2"), "testvar2")
}

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name      string
		environ   []string
		overrides []string
		expected  []string
	}{
		{
			name:     "empty",
			expected: []string{},
		},
		{
			name:     "no overrides",
			environ:  []string{"A=1", "B=2"},
			expected: []string{"A=1", "B=2"},
		},
		{
			name:      "append",
			environ:   []string{"A=1"},
			overrides: []string{"B=2"},
			expected:  []string{"A=1", "B=2"},
		},
		{
			name:      "replace in place",
			environ:   []string{"HOME=/root", "PATH=/bin"},
			overrides: []string{"HOME=/home/jovyan"},
			expected:  []string{"HOME=/home/jovyan", "PATH=/bin"},
		},
		{
			name:      "duplicates in environ",
			environ:   []string{"A=1", "A=2"},
			overrides: []string{"B=3"},
			expected:  []string{"A=2", "B=3"},
		},
		{
			name:      "entry without value",
			environ:   []string{"A"},
			overrides: []string{"A=1"},
			expected:  []string{"A=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := append([]string{}, tt.environ...)

			actual := mergeEnv(tt.environ, tt.overrides...)
			assert.Equal(t, tt.expected, actual)
			assert.Equal(t, environ, append([]string{}, tt.environ...), "input unchanged")
		})
	}
}
