package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sameehj/wifidoctor/pkg/types"
)

// Action is one maintenance step: a name and a closure that shells out
// through the host command provider. Actions never abort the pipeline;
// a failure is logged and the run moves on.
type Action struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Orchestrator executes a fixed, ordered list of maintenance actions.
type Orchestrator struct {
	Log *slog.Logger
}

// Execute runs the actions in order with uniform try/log/continue
// semantics and returns the per-action record.
func (o *Orchestrator) Execute(ctx context.Context, mode types.Mode, actions []Action) *types.PipelineRun {
	run := &types.PipelineRun{
		ID:        uuid.New().String(),
		Mode:      mode,
		State:     types.RunStateRunning,
		StartedAt: time.Now(),
		Actions:   make([]types.ActionStatus, len(actions)),
	}

	o.Log.Info("starting pipeline", "mode", mode, "run", run.ID, "actions", len(actions))

	for i, action := range actions {
		start := time.Now()
		run.Actions[i] = types.ActionStatus{
			ID:        action.ID,
			Name:      action.Name,
			State:     types.ActionStateRunning,
			StartedAt: &start,
		}

		o.Log.Info("action starting", "action", action.ID, "step", fmt.Sprintf("%d/%d", i+1, len(actions)))
		err := action.Run(ctx)
		end := time.Now()
		run.Actions[i].EndedAt = &end

		if err != nil {
			run.Actions[i].State = types.ActionStateFailed
			run.Actions[i].Error = err.Error()
			o.Log.Warn("action failed, continuing", "action", action.ID, "error", err)
			continue
		}
		run.Actions[i].State = types.ActionStateCompleted
		o.Log.Info("action completed", "action", action.ID, "duration", end.Sub(start).Truncate(time.Millisecond))
	}

	end := time.Now()
	run.EndedAt = &end
	run.State = types.RunStateCompleted

	failed := run.Failed()
	run.Summary = fmt.Sprintf("%d/%d actions succeeded in %s",
		len(actions)-failed, len(actions), end.Sub(run.StartedAt).Truncate(time.Millisecond))
	if failed > 0 {
		o.Log.Warn("pipeline finished with failures", "run", run.ID, "failed", failed)
	} else {
		o.Log.Info("pipeline finished", "run", run.ID)
	}
	return run
}
