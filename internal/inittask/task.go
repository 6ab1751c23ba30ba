// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package inittask

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Shell is used to run task scripts that are not executable.
const Shell = "/bin/sh"

// Task is a single initialization task.
type Task struct {
	// Name is the file name of the task. Tasks are ordered by it.
	Name string

	// Path is the absolute path of the task file.
	Path string

	// Interpreter is set if the file is not executable itself but a shell
	// script that must be run by it.
	Interpreter string
}

// Argv returns the path to execute and the arguments for it.
func (t Task) Argv() (string, []string) {
	if t.Interpreter != "" {
		return t.Interpreter, []string{t.Path}
	}

	return t.Path, nil
}

// Discover returns all tasks in the given directory in lexical order of their
// names.
//
// Executable regular files are run directly. Non-executable files with ".sh"
// suffix are run by [Shell]. Directories, hidden files and other files are
// skipped. A missing directory is no error and results in no tasks.
func Discover(dir string) ([]Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Task directory does not exist", slog.String("dir", dir))
			return nil, nil
		}

		return nil, fmt.Errorf("read task dir: %w", err)
	}

	tasks := []Task{}

	for _, entry := range entries {
		task, ok, err := taskFor(dir, entry)
		if err != nil {
			return nil, err
		}

		if ok {
			tasks = append(tasks, task)
		}
	}

	slices.SortFunc(tasks, func(a, b Task) int {
		return strings.Compare(a.Name, b.Name)
	})

	return tasks, nil
}

func taskFor(dir string, entry fs.DirEntry) (Task, bool, error) {
	name := entry.Name()
	path := filepath.Join(dir, name)

	if strings.HasPrefix(name, ".") {
		return Task{}, false, nil
	}

	// Follow symbolic links.
	info, err := os.Stat(path)
	if err != nil {
		return Task{}, false, fmt.Errorf("stat task %s: %w", name, err)
	}

	if !info.Mode().IsRegular() {
		slog.Warn("Skipping task that is not a regular file",
			slog.String("task", name))

		return Task{}, false, nil
	}

	task := Task{
		Name: name,
		Path: path,
	}

	switch {
	case info.Mode().Perm()&0o111 != 0:
	case strings.HasSuffix(name, ".sh"):
		task.Interpreter = Shell
	default:
		slog.Warn("Skipping task that is neither executable nor shell script",
			slog.String("task", name))

		return Task{}, false, nil
	}

	return task, true, nil
}
