// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit_test

import (
	"testing"

	"github.com/aibor/containit/sysinit"
	"github.com/stretchr/testify/assert"
)

func TestPhase_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from   sysinit.Phase
		to     sysinit.Phase
		assert assert.BoolAssertionFunc
	}{
		{sysinit.PhaseStarting, sysinit.PhaseRunningInitTasks, assert.True},
		{sysinit.PhaseStarting, sysinit.PhaseLaunchingService, assert.False},
		{sysinit.PhaseStarting, sysinit.PhaseSupervising, assert.False},
		{sysinit.PhaseRunningInitTasks, sysinit.PhaseLaunchingService, assert.True},
		{sysinit.PhaseRunningInitTasks, sysinit.PhaseRunningInitTasks, assert.False},
		{sysinit.PhaseRunningInitTasks, sysinit.PhaseShuttingDown, assert.True},
		{sysinit.PhaseLaunchingService, sysinit.PhaseSupervising, assert.True},
		{sysinit.PhaseLaunchingService, sysinit.PhaseShuttingDown, assert.True},
		{sysinit.PhaseSupervising, sysinit.PhaseShuttingDown, assert.True},
		{sysinit.PhaseSupervising, sysinit.PhaseLaunchingService, assert.False},
		{sysinit.PhaseShuttingDown, sysinit.PhaseTerminated, assert.True},
		{sysinit.PhaseShuttingDown, sysinit.PhaseShuttingDown, assert.False},
		{sysinit.PhaseTerminated, sysinit.PhaseShuttingDown, assert.False},
		{sysinit.PhaseTerminated, sysinit.PhaseStarting, assert.False},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			tt.assert(t, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "supervising", sysinit.PhaseSupervising.String())
	assert.Equal(t, "unknown", sysinit.Phase(42).String())
}
