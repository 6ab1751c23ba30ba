// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package identity_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/containit/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// currentIdentity returns an identity with the IDs of the running process, so
// the home directory can be chowned without privileges.
func currentIdentity(t *testing.T) identity.Identity {
	t.Helper()

	if os.Getuid() == 0 {
		return identity.Default()
	}

	return identity.Identity{
		User:  "tester",
		UID:   os.Getuid(),
		Group: "testers",
		GID:   os.Getgid(),
		Home:  "/home/tester",
		Shell: "/bin/sh",
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(content)
}

func TestIdentity_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*identity.Identity)
		err    error
	}{
		{
			name:   "default",
			modify: func(*identity.Identity) {},
		},
		{
			name:   "no user",
			modify: func(i *identity.Identity) { i.User = "" },
			err:    identity.ErrInvalid,
		},
		{
			name:   "no group",
			modify: func(i *identity.Identity) { i.Group = "" },
			err:    identity.ErrInvalid,
		},
		{
			name:   "root",
			modify: func(i *identity.Identity) { i.UID = 0 },
			err:    identity.ErrInvalid,
		},
		{
			name:   "negative gid",
			modify: func(i *identity.Identity) { i.GID = -1 },
			err:    identity.ErrInvalid,
		},
		{
			name:   "relative home",
			modify: func(i *identity.Identity) { i.Home = "home/jovyan" },
			err:    identity.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := identity.Default()
			tt.modify(&id)

			require.ErrorIs(t, id.Validate(), tt.err)
		})
	}
}

func TestIdentity_Setup(t *testing.T) {
	root := t.TempDir()
	id := currentIdentity(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "etc/group"),
		[]byte("root:x:0:"),
		0o644,
	))

	require.NoError(t, id.Setup(root))

	expectedGroup := "root:x:0:\n" + id.Group + ":x:" + itoa(id.GID) + ":\n"
	assert.Equal(t, expectedGroup, readFile(t, filepath.Join(root, "etc/group")))

	expectedPasswd := id.User + ":x:" + itoa(id.UID) + ":" + itoa(id.GID) +
		"::" + id.Home + ":" + id.Shell + "\n"
	assert.Equal(t, expectedPasswd, readFile(t, filepath.Join(root, "etc/passwd")))

	assert.DirExists(t, filepath.Join(root, id.Home))

	// Running again must not change anything.
	require.NoError(t, id.Setup(root))

	assert.Equal(t, expectedGroup, readFile(t, filepath.Join(root, "etc/group")))
	assert.Equal(t, expectedPasswd, readFile(t, filepath.Join(root, "etc/passwd")))
}

func TestIdentity_Setup_Conflict(t *testing.T) {
	tests := []struct {
		name   string
		group  string
		passwd string
	}{
		{
			name:  "group name with other gid",
			group: "testers:x:4242:\n",
		},
		{
			name:   "user name with other uid",
			passwd: "tester:x:4242:4242::/home/tester:/bin/sh\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))

			for file, content := range map[string]string{"group": tt.group, "passwd": tt.passwd} {
				path := filepath.Join(root, "etc", file)
				require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			}

			id := identity.Identity{
				User:  "tester",
				UID:   1000,
				Group: "testers",
				GID:   1000,
				Home:  "/home/tester",
			}

			require.ErrorIs(t, id.Setup(root), identity.ErrConflict)
		})
	}
}
