package batch

// JobState tracks one file through the encode queue.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// jobTransitions defines allowed state transitions. Key is the "from"
// state, value is the list of valid "to" states. A queued job can be
// cancelled without ever running.
var jobTransitions = map[JobState][]JobState{
	JobQueued:    {JobRunning, JobCancelled},
	JobRunning:   {JobSucceeded, JobFailed, JobCancelled},
	JobSucceeded: {},
	JobFailed:    {},
	JobCancelled: {},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s JobState) CanTransitionTo(target JobState) bool {
	valid, ok := jobTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no transitions lead out of this state.
func (s JobState) IsTerminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// SessionState tracks a batch run as a whole.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionRunning   SessionState = "running"
	SessionCompleted SessionState = "completed"
	SessionStopped   SessionState = "stopped"
)

var sessionTransitions = map[SessionState][]SessionState{
	SessionIdle:      {SessionRunning},
	SessionRunning:   {SessionCompleted, SessionStopped},
	SessionCompleted: {},
	SessionStopped:   {},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s SessionState) CanTransitionTo(target SessionState) bool {
	valid, ok := sessionTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the session has finished, successfully or not.
func (s SessionState) IsTerminal() bool {
	return s == SessionCompleted || s == SessionStopped
}
