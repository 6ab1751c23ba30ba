// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config provides the configuration of the init process.
//
// Values are taken from built-in defaults, an optional YAML file and
// CONTAINIT_* environment variables, in this order. Command line flags are
// applied on top by the caller.
package config
