package builtin

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ebeam-labs/epirun/internal/action"
	"github.com/ebeam-labs/epirun/internal/metrics"
)

// waiter owns the per-run cancellation channel shared by all long-running
// actions. begin is called at the top of every Run so cancellation state
// never leaks between executions.
type waiter struct {
	mu   sync.Mutex
	stop chan struct{}
}

func (w *waiter) begin() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stop = make(chan struct{})
	return w.stop
}

// Cancel requests early termination. Safe to call at any point, any
// number of times; the in-flight execution still completes its signal.
func (w *waiter) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop == nil {
		return
	}
	select {
	case <-w.stop:
		// already closed
	default:
		close(w.stop)
	}
}

// pollSpec is the shared parameter set of the polling wait actions.
type pollSpec struct {
	channel   string
	target    float64
	tolerance float64
	interval  time.Duration
	timeout   time.Duration
	budget    int
}

func parsePollSpec(typ string, params map[string]any, opts Options) (pollSpec, error) {
	var s pollSpec
	var ok bool
	if s.channel, ok = action.StringParam(params, "channel"); !ok || s.channel == "" {
		return s, action.Errorf(action.KindInvalidParameter, "%s: 'channel' is required", typ)
	}
	if s.target, ok = action.FloatParam(params, "target"); !ok {
		return s, action.Errorf(action.KindInvalidParameter, "%s: numeric 'target' is required", typ)
	}
	if s.tolerance, ok = action.FloatParam(params, "tolerance"); !ok || s.tolerance <= 0 {
		return s, action.Errorf(action.KindInvalidParameter, "%s: 'tolerance' must be > 0", typ)
	}
	if s.interval, ok = action.DurationParam(params, "poll_interval"); !ok || s.interval <= 0 {
		return s, action.Errorf(action.KindInvalidParameter, "%s: 'poll_interval' must be > 0", typ)
	}
	if s.timeout, ok = action.DurationParam(params, "timeout"); !ok || s.timeout <= s.interval {
		return s, action.Errorf(action.KindInvalidParameter,
			"%s: 'timeout' must be greater than 'poll_interval'", typ)
	}
	s.budget = opts.failureBudget()
	if raw, present := params["failure_budget"]; present {
		b, ok := action.IntParam(params, "failure_budget")
		if !ok || b <= 0 {
			return s, action.Errorf(action.KindInvalidParameter,
				"%s: 'failure_budget' must be a positive integer, got %v", typ, raw)
		}
		s.budget = b
	}
	return s, nil
}

// inBand reports whether v is within the tolerance band around target.
func (s pollSpec) inBand(v float64) bool {
	return math.Abs(v-s.target) <= s.tolerance
}

// pollLoop drives one wait execution: poll the channel every interval
// until check reports done, the timeout elapses, cancellation arrives,
// or the consecutive read-failure budget runs out. Read failures are
// transient up to the budget and never shift the timeout clock.
func pollLoop(ctx context.Context, env *action.Env, sig *action.Signal,
	stop <-chan struct{}, typ string, s pollSpec, check func(v float64) bool) {

	deadline := time.NewTimer(s.timeout)
	defer deadline.Stop()
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	failures := 0
	for {
		select {
		case <-stop:
			sig.Complete(action.Outcome{
				Kind: action.KindCanceled,
				Err:  action.Errorf(action.KindCanceled, "%s on %q canceled", typ, s.channel),
			})
			return
		case <-ctx.Done():
			sig.Complete(action.Outcome{
				Kind: action.KindCanceled,
				Err:  action.Wrap(action.KindCanceled, ctx.Err(), "%s on %q", typ, s.channel),
			})
			return
		case <-deadline.C:
			sig.Complete(action.Outcome{
				Kind: action.KindTimeout,
				Err: action.Errorf(action.KindTimeout,
					"%s on %q: target %v±%v not reached within %v", typ, s.channel, s.target, s.tolerance, s.timeout),
			})
			return
		case <-tick.C:
			v, err := env.HW.Read(ctx, s.channel)
			if err != nil {
				failures++
				metrics.WaitPollFailures.Inc()
				env.Log.Warn("wait poll failed", "action", typ, "channel", s.channel,
					"consecutive", failures, "budget", s.budget, "err", err)
				if failures >= s.budget {
					sig.Complete(action.Outcome{
						Kind: action.KindHardwareUnresponsive,
						Err: action.Wrap(action.KindHardwareUnresponsive, err,
							"%s on %q: %d consecutive failed polls", typ, s.channel, failures),
					})
					return
				}
				continue
			}
			failures = 0
			if check(v) {
				sig.Complete(action.Outcome{Kind: action.KindOK})
				return
			}
		}
	}
}

// WaitUntilSetpoint polls a channel until its value enters the tolerance
// band around the target. Params: channel, target, tolerance,
// poll_interval, timeout, optional failure_budget.
type WaitUntilSetpoint struct {
	waiter
	opts Options
	spec pollSpec
}

func (a *WaitUntilSetpoint) Type() string { return TypeWaitUntilSetpoint }

func (a *WaitUntilSetpoint) Configure(params map[string]any) error {
	spec, err := parsePollSpec(a.Type(), params, a.opts)
	if err != nil {
		return err
	}
	a.spec = spec
	return nil
}

func (a *WaitUntilSetpoint) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	stop := a.begin()
	spec := a.spec
	go pollLoop(ctx, env, sig, stop, a.Type(), spec, spec.inBand)
}

// WaitUntilStable polls like WaitUntilSetpoint but only completes after
// the value has stayed inside the band for hold_polls consecutive polls,
// so a reading that merely crosses the band on its way past does not
// release the recipe. Extra param: hold_polls (default 3).
type WaitUntilStable struct {
	waiter
	opts Options
	spec pollSpec
	hold int
}

func (a *WaitUntilStable) Type() string { return TypeWaitUntilStable }

func (a *WaitUntilStable) Configure(params map[string]any) error {
	spec, err := parsePollSpec(a.Type(), params, a.opts)
	if err != nil {
		return err
	}
	hold := 3
	if raw, present := params["hold_polls"]; present {
		h, ok := action.IntParam(params, "hold_polls")
		if !ok || h <= 0 {
			return action.Errorf(action.KindInvalidParameter,
				"%s: 'hold_polls' must be a positive integer, got %v", a.Type(), raw)
		}
		hold = h
	}
	a.spec = spec
	a.hold = hold
	return nil
}

func (a *WaitUntilStable) Run(ctx context.Context, env *action.Env, sig *action.Signal) {
	stop := a.begin()
	spec := a.spec
	hold := a.hold
	streak := 0
	go pollLoop(ctx, env, sig, stop, a.Type(), spec, func(v float64) bool {
		if spec.inBand(v) {
			streak++
		} else {
			streak = 0
		}
		return streak >= hold
	})
}
