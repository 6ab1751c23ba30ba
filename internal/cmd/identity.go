// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/aibor/containit/internal/identity"
	"github.com/spf13/cobra"
)

func newIdentityCommand() *cobra.Command {
	ident := identity.Default()
	root := "/"

	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Create the service user, its group and home directory",
		Long: `Create the service user, its group and home directory.

Meant to be run at image build time. Existing entries with the same name and
ID are kept, so it can be run repeatedly. Entries that conflict are an error.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := ident.Setup(root); err != nil {
				return fmt.Errorf("setup identity: %w", err)
			}

			slog.Info("Identity ready",
				slog.String("user", ident.User),
				slog.Int("uid", ident.UID),
				slog.String("group", ident.Group),
				slog.Int("gid", ident.GID),
				slog.String("home", ident.Home),
			)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&ident.User, "user", ident.User, "user name")
	flags.IntVar(&ident.UID, "uid", ident.UID, "numeric user ID")
	flags.StringVar(&ident.Group, "group", ident.Group, "group name")
	flags.IntVar(&ident.GID, "gid", ident.GID, "numeric group ID")
	flags.StringVar(&ident.Home, "home", ident.Home, "home directory")
	flags.StringVar(&ident.Shell, "shell", ident.Shell, "login shell")
	flags.StringVar(&root, "root", root, "root directory of the file system to modify")

	return cmd
}
