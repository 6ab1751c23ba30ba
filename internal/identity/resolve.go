// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"fmt"
	"os"
	"syscall"

	"github.com/moby/sys/user"
)

// Default locations of the user databases.
const (
	DefaultPasswdPath = "/" + passwdFile
	DefaultGroupPath  = "/" + groupFile
)

// Credentials are the resolved identity a process runs with.
type Credentials struct {
	// Name is the user name, if the user is known in the user database.
	Name   string
	UID    int
	GID    int
	Groups []int
	Home   string
}

// Resolve resolves the given user specification with the given user
// databases.
//
// The specification may be a user name or numeric user ID, optionally
// followed by ":" and a group name or numeric group ID. Numeric IDs do not
// need to exist in the databases.
func Resolve(spec, passwdPath, groupPath string) (*Credentials, error) {
	defaults := &user.ExecUser{
		Uid:  0,
		Gid:  0,
		Home: "/",
	}

	execUser, err := user.GetExecUserPath(spec, defaults, passwdPath, groupPath)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", spec, err)
	}

	creds := &Credentials{
		UID:    execUser.Uid,
		GID:    execUser.Gid,
		Groups: execUser.Sgids,
		Home:   execUser.Home,
	}

	users, err := parseFile(passwdPath, user.ParsePasswdFileFilter, func(u user.User) bool {
		return u.Uid == execUser.Uid
	})
	if err != nil {
		return nil, err
	}

	if len(users) > 0 {
		creds.Name = users[0].Name
	}

	return creds, nil
}

// IsCurrent returns true if the credentials match the identity of the running
// process, so no change of identity is necessary.
func (c *Credentials) IsCurrent() bool {
	return c.UID == os.Getuid() && c.GID == os.Getgid()
}

// SysCredential returns the credentials for starting a process.
func (c *Credentials) SysCredential() *syscall.Credential {
	groups := make([]uint32, len(c.Groups))
	for idx, gid := range c.Groups {
		groups[idx] = uint32(gid) //nolint:gosec
	}

	return &syscall.Credential{
		Uid:    uint32(c.UID), //nolint:gosec
		Gid:    uint32(c.GID), //nolint:gosec
		Groups: groups,
	}
}

// Env returns the environment variables describing the identity.
func (c *Credentials) Env() []string {
	env := []string{"HOME=" + c.Home}

	if c.Name != "" {
		env = append(env, "USER="+c.Name, "LOGNAME="+c.Name)
	}

	return env
}
