package builtin

import (
	"context"
	"sort"

	"github.com/ebeam-labs/epirun/internal/action"
)

// Setpoint writes a setpoint value to one or more channels and completes
// immediately. Params:
//
//	targets: {channel: value, ...}
type Setpoint struct {
	targets map[string]float64
}

func (a *Setpoint) Type() string { return TypeSetpoint }

func (a *Setpoint) Configure(params map[string]any) error {
	targets, err := floatTargets(a.Type(), params)
	if err != nil {
		return err
	}
	for ch, v := range targets {
		if v < 0 {
			return action.Errorf(action.KindInvalidParameter,
				"%s: setpoint for %q is negative (%v)", a.Type(), ch, v)
		}
	}
	a.targets = targets
	return nil
}

func (a *Setpoint) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	writeAll(ctx, env, sig, a.Type(), a.targets)
}

func (a *Setpoint) Cancel() {}

// RateLimit writes a ramp-rate limit to one or more channels and
// completes immediately. Values must be strictly positive. Params:
//
//	targets: {channel: rate, ...}
type RateLimit struct {
	targets map[string]float64
}

func (a *RateLimit) Type() string { return TypeRateLimit }

func (a *RateLimit) Configure(params map[string]any) error {
	targets, err := floatTargets(a.Type(), params)
	if err != nil {
		return err
	}
	for ch, v := range targets {
		if v <= 0 {
			return action.Errorf(action.KindInvalidParameter,
				"%s: rate limit for %q must be positive, got %v", a.Type(), ch, v)
		}
	}
	a.targets = targets
	return nil
}

func (a *RateLimit) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	writeAll(ctx, env, sig, a.Type(), a.targets)
}

func (a *RateLimit) Cancel() {}

// Shutter drives named shutters open or closed and completes
// immediately. Open is written as 1.0, closed as 0.0. Params:
//
//	states: {channel: OPEN|CLOSE, ...}
type Shutter struct {
	targets map[string]float64
}

const (
	shutterOpen   = 1.0
	shutterClosed = 0.0
)

func (a *Shutter) Type() string { return TypeShutter }

func (a *Shutter) Configure(params map[string]any) error {
	states, ok := action.MapParam(params, "states")
	if !ok || len(states) == 0 {
		return action.Errorf(action.KindInvalidParameter,
			"%s: 'states' mapping is required", a.Type())
	}
	targets := make(map[string]float64, len(states))
	for ch, v := range states {
		s, ok := v.(string)
		if !ok {
			return action.Errorf(action.KindInvalidParameter,
				"%s: state for %q must be OPEN or CLOSE, got %v", a.Type(), ch, v)
		}
		switch s {
		case "OPEN":
			targets[ch] = shutterOpen
		case "CLOSE":
			targets[ch] = shutterClosed
		default:
			return action.Errorf(action.KindInvalidParameter,
				"%s: state for %q must be OPEN or CLOSE, got %q", a.Type(), ch, s)
		}
	}
	a.targets = targets
	return nil
}

func (a *Shutter) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	writeAll(ctx, env, sig, a.Type(), a.targets)
}

func (a *Shutter) Cancel() {}

// floatTargets parses the shared {targets: {channel: number}} param shape.
func floatTargets(typ string, params map[string]any) (map[string]float64, error) {
	m, ok := action.MapParam(params, "targets")
	if !ok || len(m) == 0 {
		return nil, action.Errorf(action.KindInvalidParameter,
			"%s: 'targets' mapping is required", typ)
	}
	out := make(map[string]float64, len(m))
	for ch, v := range m {
		f, ok := action.FloatParam(m, ch)
		if !ok {
			return nil, action.Errorf(action.KindInvalidParameter,
				"%s: value for %q is not numeric (%v)", typ, ch, v)
		}
		out[ch] = f
	}
	return out, nil
}

// writeAll issues every write in deterministic channel order and
// completes the signal. A failed write ends the step with the hardware
// error attached.
func writeAll(ctx context.Context, env *action.Env, sig *action.Signal, typ string, targets map[string]float64) {
	channels := make([]string, 0, len(targets))
	for ch := range targets {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	for _, ch := range channels {
		v := targets[ch]
		if err := env.HW.Set(ctx, ch, v); err != nil {
			env.Log.Error("hardware write failed", "action", typ, "channel", ch, "value", v, "err", err)
			sig.Complete(action.Outcome{
				Kind: action.KindHardwareUnresponsive,
				Err:  action.Wrap(action.KindHardwareUnresponsive, err, "%s: write %s", typ, ch),
			})
			return
		}
		env.Log.Debug("hardware write", "action", typ, "channel", ch, "value", v)
	}
	sig.Complete(action.Outcome{Kind: action.KindOK})
}
