// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package inittask discovers one-shot initialization tasks in a directory
// and handles the environment they hand off to subsequent tasks.
package inittask
