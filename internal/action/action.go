package action

import (
	"context"
	"log/slog"

	"github.com/ebeam-labs/epirun/internal/hardware"
)

// Env is what a running action gets to work with. The runner builds one
// per recipe run; actions never hold onto it across executions.
type Env struct {
	HW  hardware.Interface
	Log *slog.Logger

	// Seek asks the runner to continue from the given step index instead
	// of advancing to the next one. Takes effect when the current step's
	// completion is observed. Used by loop actions.
	Seek func(step int)
}

// Action is the unit of work in a recipe.
//
// Configure validates and stores parameters; calling it again fully
// resets prior configuration. Run begins the action's work and must
// return without blocking for the action's physical duration; any state
// that varies per execution is reset at the top of Run so one instance
// survives repeated steps and repeated recipe runs. Cancel requests
// early termination and is safe to call at any point between Run and
// completion; a canceled action still fires its Signal, tagged canceled.
type Action interface {
	Type() string
	Configure(params map[string]any) error
	Run(ctx context.Context, env *Env, sig *Signal)
	Cancel()
}

// Factory builds a fresh, unconfigured action instance.
type Factory func() Action

// StepLinker is implemented by actions that need to see the whole
// resolved step sequence before the run starts (loop bookkeeping).
// Link is called once per step during recipe load, after every step
// has been resolved and configured.
type StepLinker interface {
	Link(index int, steps []Action) error
}

// StepResetter is implemented by actions that accumulate state across
// the steps of one run (loop bookkeeping). Reset is called on every
// step when a run starts, so restarting a recipe whose previous run
// ended mid-flight begins fresh.
type StepResetter interface {
	Reset()
}
