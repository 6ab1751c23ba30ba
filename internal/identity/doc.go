// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity creates the unprivileged user the service runs as and
// resolves user specifications to process credentials.
//
// [Identity.Setup] is meant to run once at image build time. [Resolve] runs
// at container start, before the service is launched.
package identity
