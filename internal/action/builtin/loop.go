package builtin

import (
	"context"

	"github.com/ebeam-labs/epirun/internal/action"
)

// Loop marks the head of a bounded loop. Params:
//
//	count: total number of iterations (>= 1)
//
// The remaining-iterations counter self-resets: it is zero both before
// the first entry and after the matching END_LOOP lets the recipe fall
// through, so the same instance is reusable on the next recipe run
// without external cleanup.
type Loop struct {
	count int

	index     int
	remaining int
	iteration int
}

func (a *Loop) Type() string { return TypeLoop }

func (a *Loop) Configure(params map[string]any) error {
	n, ok := action.IntParam(params, "count")
	if !ok || n < 1 {
		return action.Errorf(action.KindInvalidParameter,
			"%s: 'count' must be a positive integer", a.Type())
	}
	a.count = n
	a.remaining = 0
	a.iteration = 0
	return nil
}

func (a *Loop) Link(index int, steps []action.Action) error {
	a.index = index
	return nil
}

// Reset clears iteration bookkeeping. A run that ends mid-loop leaves
// remaining > 0 behind; without this a restart would run short.
func (a *Loop) Reset() {
	a.remaining = 0
	a.iteration = 0
}

func (a *Loop) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	if a.remaining == 0 {
		// Fresh entry. One iteration is the pass we are starting now.
		a.remaining = a.count - 1
		a.iteration = 1
	} else {
		a.remaining--
		a.iteration++
	}
	env.Log.Info("loop iteration", "iteration", a.iteration, "total", a.count)
	sig.Complete(action.Outcome{Kind: action.KindOK})
}

func (a *Loop) Cancel() {}

// EndLoop closes the nearest unmatched LOOP above it. While iterations
// remain it seeks the cursor back to the loop head; otherwise the recipe
// falls through.
type EndLoop struct {
	loop *Loop
}

func (a *EndLoop) Type() string { return TypeEndLoop }

func (a *EndLoop) Configure(params map[string]any) error {
	a.loop = nil
	return nil
}

// Link pairs this END_LOOP with its LOOP the way brackets match: walk
// backward, skipping already-closed inner loops.
func (a *EndLoop) Link(index int, steps []action.Action) error {
	depth := 0
	for j := index - 1; j >= 0; j-- {
		switch s := steps[j].(type) {
		case *EndLoop:
			depth++
		case *Loop:
			if depth == 0 {
				a.loop = s
				return nil
			}
			depth--
		}
	}
	return action.Errorf(action.KindInvalidParameter,
		"%s at step %d has no matching %s", TypeEndLoop, index, TypeLoop)
}

func (a *EndLoop) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	if a.loop == nil {
		sig.Complete(action.Outcome{
			Kind: action.KindInvalidParameter,
			Err:  action.Errorf(action.KindInvalidParameter, "%s was never linked to a loop head", a.Type()),
		})
		return
	}
	if a.loop.remaining > 0 {
		env.Seek(a.loop.index)
	}
	sig.Complete(action.Outcome{Kind: action.KindOK})
}

func (a *EndLoop) Cancel() {}
