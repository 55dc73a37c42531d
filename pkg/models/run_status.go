package models

// RunStatus is the lifecycle state of the single active run. Transitions are
// guarded so that illegal moves (resume while idle, pause while stopped) are
// rejected explicitly rather than silently tolerated.
type RunStatus string

const (
	RunStatusIdle           RunStatus = "idle"
	RunStatusRunning        RunStatus = "running"
	RunStatusPaused         RunStatus = "paused"
	RunStatusWaitingForUser RunStatus = "waiting_for_user"
	RunStatusStopped        RunStatus = "stopped"
	RunStatusCompleted      RunStatus = "completed"
)

var runTransitions = map[RunStatus][]RunStatus{
	RunStatusIdle:           {RunStatusRunning},
	RunStatusRunning:        {RunStatusPaused, RunStatusWaitingForUser, RunStatusStopped, RunStatusCompleted},
	RunStatusPaused:         {RunStatusRunning, RunStatusStopped},
	RunStatusWaitingForUser: {RunStatusRunning, RunStatusStopped},
	RunStatusStopped:        {RunStatusIdle},
	RunStatusCompleted:      {RunStatusIdle},
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// transition.
func (s RunStatus) CanTransition(next RunStatus) bool {
	for _, allowed := range runTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Active reports whether a run currently owns the executor.
func (s RunStatus) Active() bool {
	switch s {
	case RunStatusRunning, RunStatusPaused, RunStatusWaitingForUser:
		return true
	default:
		return false
	}
}
