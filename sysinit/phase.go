// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import "slices"

// Phase is a lifecycle phase of the init process.
type Phase int

// Phases in the order they are usually passed.
const (
	PhaseStarting Phase = iota
	PhaseRunningInitTasks
	PhaseLaunchingService
	PhaseSupervising
	PhaseShuttingDown
	PhaseTerminated
)

var phaseNames = map[Phase]string{
	PhaseStarting:         "starting",
	PhaseRunningInitTasks: "running-init-tasks",
	PhaseLaunchingService: "launching-service",
	PhaseSupervising:      "supervising",
	PhaseShuttingDown:     "shutting-down",
	PhaseTerminated:       "terminated",
}

// Any phase may be followed by [PhaseShuttingDown] on failure.
var phaseTransitions = map[Phase][]Phase{
	PhaseStarting:         {PhaseRunningInitTasks},
	PhaseRunningInitTasks: {PhaseLaunchingService},
	PhaseLaunchingService: {PhaseSupervising},
	PhaseSupervising:      {},
	PhaseShuttingDown:     {PhaseTerminated},
	PhaseTerminated:       {},
}

func (p Phase) String() string {
	name, exists := phaseNames[p]
	if !exists {
		return "unknown"
	}

	return name
}

// CanTransitionTo returns true if the given [Phase] may follow.
func (p Phase) CanTransitionTo(next Phase) bool {
	if next == PhaseShuttingDown {
		return p < PhaseShuttingDown
	}

	return slices.Contains(phaseTransitions[p], next)
}
