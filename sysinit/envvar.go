// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"os"
	"strings"
)

// EnvVars is a map of environment variable values by name.
type EnvVars map[string]string

// SetEnv sets the given [EnvVars] in the environment.
func SetEnv(envVars EnvVars) error {
	for key, value := range sortedMap(envVars) {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	return nil
}

// WithEnv returns a setup [Func] that wraps [SetEnv] and can be used with
// [Run].
func WithEnv(envVars EnvVars) Func {
	return func(_ *State) error {
		return SetEnv(envVars)
	}
}

// mergeEnv returns the given environment with the overrides applied.
// Variables are replaced in place, new ones are appended.
func mergeEnv(environ []string, overrides ...string) []string {
	merged := make([]string, 0, len(environ)+len(overrides))
	index := make(map[string]int, len(environ))

	for _, entries := range [][]string{environ, overrides} {
		for _, entry := range entries {
			key, _, _ := strings.Cut(entry, "=")

			if idx, exists := index[key]; exists {
				merged[idx] = entry
				continue
			}

			index[key] = len(merged)
			merged = append(merged, entry)
		}
	}

	return merged
}
