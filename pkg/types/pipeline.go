package types

import "time"

// PipelineRun represents a single execution of a maintenance pipeline.
type PipelineRun struct {
	ID        string         `json:"id"`
	Mode      Mode           `json:"mode"`
	State     RunState       `json:"state"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   *time.Time     `json:"endedAt,omitempty"`
	Actions   []ActionStatus `json:"actions"`
	Summary   string         `json:"summary"`
}

type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
)

// ActionStatus records the outcome of one maintenance action. Individual
// action failures are non-fatal; the pipeline records them and moves on.
type ActionStatus struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	State     ActionState `json:"state"`
	StartedAt *time.Time  `json:"startedAt,omitempty"`
	EndedAt   *time.Time  `json:"endedAt,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type ActionState string

const (
	ActionStateWaiting   ActionState = "waiting"
	ActionStateRunning   ActionState = "running"
	ActionStateCompleted ActionState = "completed"
	ActionStateFailed    ActionState = "failed"
)

// Failed reports how many actions in the run failed.
func (r *PipelineRun) Failed() int {
	n := 0
	for _, a := range r.Actions {
		if a.State == ActionStateFailed {
			n++
		}
	}
	return n
}
