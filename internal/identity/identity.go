// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/moby/sys/user"
)

const (
	passwdFile = "etc/passwd"
	groupFile  = "etc/group"

	homeDirMode = 0o750
)

var (
	// ErrConflict is returned if an existing user or group entry conflicts
	// with the [Identity] to create.
	ErrConflict = errors.New("conflicting entry")

	// ErrInvalid is returned if the [Identity] is incomplete.
	ErrInvalid = errors.New("invalid identity")
)

// Identity is the non-root user and group the service runs as.
type Identity struct {
	User  string
	UID   int
	Group string
	GID   int
	Home  string
	Shell string
}

// Default returns the default [Identity].
func Default() Identity {
	return Identity{
		User:  "jovyan",
		UID:   1000,
		Group: "users",
		GID:   100,
		Home:  "/home/jovyan",
		Shell: "/bin/bash",
	}
}

// Validate checks that all required fields are set.
func (i Identity) Validate() error {
	switch {
	case i.User == "":
		return fmt.Errorf("%w: empty user name", ErrInvalid)
	case i.Group == "":
		return fmt.Errorf("%w: empty group name", ErrInvalid)
	case i.UID <= 0:
		return fmt.Errorf("%w: uid must be positive", ErrInvalid)
	case i.GID < 0:
		return fmt.Errorf("%w: gid must not be negative", ErrInvalid)
	case !filepath.IsAbs(i.Home):
		return fmt.Errorf("%w: home must be absolute", ErrInvalid)
	}

	return nil
}

// Setup creates the group, the user and the home directory below the given
// root directory.
//
// It is idempotent: entries that already exist with the same IDs are kept.
// Entries with the same name but other IDs, or with the same ID but another
// name result in [ErrConflict].
func (i Identity) Setup(root string) error {
	if err := i.Validate(); err != nil {
		return err
	}

	if err := i.ensureGroup(filepath.Join(root, groupFile)); err != nil {
		return fmt.Errorf("group: %w", err)
	}

	if err := i.ensureUser(filepath.Join(root, passwdFile)); err != nil {
		return fmt.Errorf("user: %w", err)
	}

	if err := i.ensureHome(root); err != nil {
		return fmt.Errorf("home: %w", err)
	}

	return nil
}

func (i Identity) ensureGroup(path string) error {
	groups, err := parseFile(path, user.ParseGroupFileFilter, func(g user.Group) bool {
		return g.Name == i.Group || g.Gid == i.GID
	})
	if err != nil {
		return err
	}

	for _, group := range groups {
		if group.Name != i.Group || group.Gid != i.GID {
			return fmt.Errorf("%w: %s:%d", ErrConflict, group.Name, group.Gid)
		}

		slog.Debug("Group exists", slog.String("group", i.Group))

		return nil
	}

	return appendLine(path, fmt.Sprintf("%s:x:%d:", i.Group, i.GID))
}

func (i Identity) ensureUser(path string) error {
	users, err := parseFile(path, user.ParsePasswdFileFilter, func(u user.User) bool {
		return u.Name == i.User || u.Uid == i.UID
	})
	if err != nil {
		return err
	}

	for _, usr := range users {
		if usr.Name != i.User || usr.Uid != i.UID || usr.Gid != i.GID {
			return fmt.Errorf("%w: %s:%d:%d", ErrConflict, usr.Name, usr.Uid, usr.Gid)
		}

		slog.Debug("User exists", slog.String("user", i.User))

		return nil
	}

	line := fmt.Sprintf("%s:x:%d:%d::%s:%s", i.User, i.UID, i.GID, i.Home, i.Shell)

	return appendLine(path, line)
}

func (i Identity) ensureHome(root string) error {
	home := filepath.Join(root, i.Home)

	if err := os.MkdirAll(home, homeDirMode); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	if err := os.Chown(home, i.UID, i.GID); err != nil {
		return fmt.Errorf("chown: %w", err)
	}

	return nil
}

func parseFile[T any](
	path string,
	parse func(string, func(T) bool) ([]T, error),
	filter func(T) bool,
) ([]T, error) {
	entries, err := parse(path, filter)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return entries, nil
}

func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	// Existing files might lack the final newline.
	if !endsWithNewline(file) {
		line = "\n" + line
	}

	if _, err := fmt.Fprintln(file, line); err != nil {
		_ = file.Close()
		return fmt.Errorf("write: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

func endsWithNewline(file *os.File) bool {
	info, err := file.Stat()
	if err != nil || info.Size() == 0 {
		return true
	}

	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return true
	}

	return last[0] == '\n'
}
