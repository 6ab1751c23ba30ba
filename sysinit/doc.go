// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysinit provides the init process of a container.
//
// [Run] makes the process the reaper of the container's process tree, runs a
// list of setup [Func]s in order and returns the exit code the process should
// terminate with. The usual list is some environment setup, the one-shot
// init tasks of a directory ([WithInitTasks]) and the supervised service
// ([WithService]), whose exit code becomes the exit code of the container.
package sysinit
