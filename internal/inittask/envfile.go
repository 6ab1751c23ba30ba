// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package inittask

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvFileVar is the name of the environment variable that holds the path of
// the environment hand-off file passed to each task.
const EnvFileVar = "CONTAINIT_ENV_FILE"

// ErrInvalidEnvLine is returned for lines of an environment file that are not
// in KEY=VALUE format.
var ErrInvalidEnvLine = errors.New("invalid environment line")

// EnvFile is a file a task can write environment variables into, that are
// applied to the environment of all subsequent tasks and the service.
type EnvFile struct {
	Path string
}

// NewEnvFile creates a new empty [EnvFile] in the given directory.
func NewEnvFile(dir string) (*EnvFile, error) {
	file, err := os.CreateTemp(dir, "containit-env-")
	if err != nil {
		return nil, fmt.Errorf("create env file: %w", err)
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("close env file: %w", err)
	}

	// Tasks may run under different identities.
	if err := os.Chmod(file.Name(), 0o666); err != nil {
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("chmod env file: %w", err)
	}

	return &EnvFile{Path: file.Name()}, nil
}

// Env returns the environment variable that passes the file path to a task.
func (e *EnvFile) Env() string {
	return EnvFileVar + "=" + e.Path
}

// Consume reads all variables from the file and truncates it.
func (e *EnvFile) Consume() (map[string]string, error) {
	file, err := os.OpenFile(e.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer file.Close()

	vars, err := ParseEnv(file)
	if err != nil {
		return nil, err
	}

	if err := file.Truncate(0); err != nil {
		return nil, fmt.Errorf("truncate env file: %w", err)
	}

	return vars, nil
}

// Remove deletes the file.
func (e *EnvFile) Remove() error {
	if err := os.Remove(e.Path); err != nil {
		return fmt.Errorf("remove env file: %w", err)
	}

	return nil
}

// ParseEnv parses lines in KEY=VALUE format.
//
// Empty lines and lines starting with "#" are ignored. An optional "export "
// prefix is stripped. Values may be enclosed in single or double quotes.
func ParseEnv(reader io.Reader) (map[string]string, error) {
	vars := map[string]string{}
	scanner := bufio.NewScanner(reader)
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)

		if !found || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("%w %d: %q", ErrInvalidEnvLine, lineNum, line)
		}

		vars[key] = unquote(strings.TrimSpace(value))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return vars, nil
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}

	for _, quote := range []byte{'"', '\''} {
		if value[0] == quote && value[len(value)-1] == quote {
			return value[1 : len(value)-1]
		}
	}

	return value
}
