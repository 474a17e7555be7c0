package builtin

import (
	"context"
	"time"

	"github.com/ebeam-labs/epirun/internal/action"
)

// WaitForSeconds holds the recipe for a fixed duration. Params:
//
//	seconds: number, or any Go duration string under "duration"
type WaitForSeconds struct {
	waiter
	d time.Duration
}

func (a *WaitForSeconds) Type() string { return TypeWaitForSeconds }

func (a *WaitForSeconds) Configure(params map[string]any) error {
	d, ok := action.DurationParam(params, "seconds")
	if !ok {
		d, ok = action.DurationParam(params, "duration")
	}
	if !ok || d <= 0 {
		return action.Errorf(action.KindInvalidParameter,
			"%s: positive 'seconds' (or 'duration') is required", a.Type())
	}
	a.d = d
	return nil
}

func (a *WaitForSeconds) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	stop := a.begin()
	d := a.d
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			sig.Complete(action.Outcome{Kind: action.KindOK})
		case <-stop:
			sig.Complete(action.Outcome{
				Kind: action.KindCanceled,
				Err:  action.Errorf(action.KindCanceled, "%s canceled", a.Type()),
			})
		case <-ctx.Done():
			sig.Complete(action.Outcome{
				Kind: action.KindCanceled,
				Err:  action.Wrap(action.KindCanceled, ctx.Err(), "%s", a.Type()),
			})
		}
	}()
}
