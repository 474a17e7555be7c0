// Package runner drives a resolved recipe's steps to completion in
// strict order: one action in flight at a time, the next started only
// after the current one's completion signal is observed. Control
// (pause, resume, abort) stays responsive the whole time because the
// in-flight action does its waiting on its own goroutine.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ebeam-labs/epirun/internal/action"
	"github.com/ebeam-labs/epirun/internal/hardware"
	"github.com/ebeam-labs/epirun/internal/metrics"
	"github.com/ebeam-labs/epirun/internal/recipe"
)

// State is the runner lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateAborting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateAborting:
		return "aborting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// terminal reports whether no further steps will run.
func (s State) terminal() bool { return s == StateCompleted || s == StateFailed }

// Active reports whether a recipe currently owns the runner.
func (s State) Active() bool {
	return s == StateRunning || s == StatePaused || s == StateAborting
}

// Progress is the read-only view consumers observe. Step is the cursor:
// the index of the executing step while running, one past the last
// executed step once completed.
type Progress struct {
	RunID     string `json:"run_id,omitempty"`
	Recipe    string `json:"recipe"`
	Step      int    `json:"step"`
	StepCount int    `json:"step_count"`
	StepType  string `json:"step_type,omitempty"`
	State     State  `json:"state"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Config tunes the runner's own safety ceilings.
type Config struct {
	// Watchdog bounds how long any single step may run, independent of
	// the action's own declared timeout, so a hung device cannot wedge
	// the recipe forever.
	Watchdog time.Duration
	// AckTimeout bounds how long the runner waits for a canceled action
	// to acknowledge before moving on without it.
	AckTimeout time.Duration
}

const (
	defaultWatchdog   = 10 * time.Minute
	defaultAckTimeout = 5 * time.Second
)

// Runner executes one recipe at a time.
type Runner struct {
	ctx context.Context
	reg *action.Registry
	hw  hardware.Interface
	log *slog.Logger
	cfg Config

	mu         sync.Mutex
	state      State
	runID      string
	recipeName string
	steps      []action.Action
	cursor     int
	seekTo     int
	lastOut    action.Outcome
	observers  []func(Progress)

	resumeCh  chan struct{}
	abortCh   chan struct{}
	abortOnce *sync.Once
	runDone   chan struct{}
}

// New creates an idle Runner. ctx ends every in-flight action when the
// surrounding application shuts down.
func New(ctx context.Context, reg *action.Registry, hw hardware.Interface, log *slog.Logger, cfg Config) *Runner {
	if cfg.Watchdog <= 0 {
		cfg.Watchdog = defaultWatchdog
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	return &Runner{
		ctx:    ctx,
		reg:    reg,
		hw:     hw,
		log:    log,
		cfg:    cfg,
		state:  StateIdle,
		seekTo: -1,
	}
}

// OnProgress registers an observer invoked on every state or step
// transition. Observers read the snapshot and must not block for long.
func (r *Runner) OnProgress(fn func(Progress)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Load resolves every step of a recipe definition through the registry,
// fail-fast: any unknown type or invalid parameter rejects the whole
// recipe before any hardware is touched.
func (r *Runner) Load(name string, defs []recipe.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Active() {
		return fmt.Errorf("recipe %q is still active (%s)", r.recipeName, r.state)
	}
	if len(defs) == 0 {
		return action.Errorf(action.KindInvalidParameter, "recipe %q has no steps", name)
	}
	steps := make([]action.Action, len(defs))
	for i, def := range defs {
		a, err := r.reg.Resolve(def.Type, def.Params)
		if err != nil {
			return fmt.Errorf("recipe %q step %d: %w", name, i, err)
		}
		steps[i] = a
	}
	for i, a := range steps {
		if l, ok := a.(action.StepLinker); ok {
			if err := l.Link(i, steps); err != nil {
				return fmt.Errorf("recipe %q: %w", name, err)
			}
		}
	}
	r.recipeName = name
	r.steps = steps
	r.runID = ""
	r.cursor = 0
	r.seekTo = -1
	r.lastOut = action.Outcome{}
	r.state = StateIdle
	return nil
}

// Start begins executing the loaded recipe from step 0.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.state != StateIdle && !r.state.terminal() {
		r.mu.Unlock()
		return fmt.Errorf("cannot start: runner is %s", r.state)
	}
	if len(r.steps) == 0 {
		r.mu.Unlock()
		return fmt.Errorf("cannot start: no recipe loaded")
	}
	// A previous run of the same steps may have ended mid-loop; start
	// every stateful action from a clean slate.
	for _, a := range r.steps {
		if res, ok := a.(action.StepResetter); ok {
			res.Reset()
		}
	}
	r.runID = uuid.NewString()
	r.cursor = 0
	r.seekTo = -1
	r.lastOut = action.Outcome{}
	r.state = StateRunning
	r.resumeCh = make(chan struct{}, 1)
	r.abortCh = make(chan struct{})
	r.abortOnce = &sync.Once{}
	r.runDone = make(chan struct{})
	runID := r.runID
	r.mu.Unlock()

	r.log.Info("recipe started", "run_id", runID, "recipe", r.recipeName, "steps", len(r.steps))
	r.notify()
	go r.loop(r.runDone)
	return nil
}

// Pause stops the runner from starting the next step. The in-flight
// action keeps going: a physical process already in motion should not be
// halted by a pause, so pause takes effect at the next step boundary.
func (r *Runner) Pause() error {
	r.mu.Lock()
	if r.state != StateRunning {
		st := r.state
		r.mu.Unlock()
		return fmt.Errorf("cannot pause: runner is %s", st)
	}
	r.state = StatePaused
	r.mu.Unlock()
	r.log.Info("recipe paused", "recipe", r.recipeName)
	r.notify()
	return nil
}

// Resume lifts a pause.
func (r *Runner) Resume() error {
	r.mu.Lock()
	if r.state != StatePaused {
		st := r.state
		r.mu.Unlock()
		return fmt.Errorf("cannot resume: runner is %s", st)
	}
	r.state = StateRunning
	select {
	case r.resumeCh <- struct{}{}:
	default:
	}
	r.mu.Unlock()
	r.log.Info("recipe resumed", "recipe", r.recipeName)
	r.notify()
	return nil
}

// Abort cancels the in-flight action and ends the run as Failed with
// kind Aborted, regardless of how that action reports its own outcome.
func (r *Runner) Abort() error {
	r.mu.Lock()
	if !r.state.Active() {
		st := r.state
		r.mu.Unlock()
		return fmt.Errorf("cannot abort: runner is %s", st)
	}
	r.state = StateAborting
	r.abortOnce.Do(func() { close(r.abortCh) })
	r.mu.Unlock()
	r.log.Warn("recipe abort requested", "recipe", r.recipeName)
	r.notify()
	return nil
}

// Progress returns the current snapshot.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progressLocked()
}

// Done returns a channel closed when the current run's goroutine exits.
// Nil before the first Start.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runDone
}

func (r *Runner) loop(done chan struct{}) {
	defer close(done)

	env := &action.Env{
		HW:  r.hw,
		Log: r.log,
		Seek: func(step int) {
			r.mu.Lock()
			r.seekTo = step
			r.mu.Unlock()
		},
	}

	for {
		// Step boundary: pause holds here, abort and completion resolve here.
		r.mu.Lock()
		for r.state == StatePaused {
			resume, abort := r.resumeCh, r.abortCh
			r.mu.Unlock()
			select {
			case <-resume:
			case <-abort:
			}
			r.mu.Lock()
		}
		if r.state == StateAborting {
			r.finishLocked(action.Outcome{
				Kind: action.KindAborted,
				Err:  action.Errorf(action.KindAborted, "recipe %q aborted", r.recipeName),
			})
			return
		}
		if r.cursor >= len(r.steps) {
			r.state = StateCompleted
			r.mu.Unlock()
			metrics.RecipeRuns.WithLabelValues("completed").Inc()
			r.log.Info("recipe completed", "recipe", r.recipeName, "steps", len(r.steps))
			r.notify()
			return
		}
		step := r.cursor
		act := r.steps[step]
		r.seekTo = -1
		abort := r.abortCh
		r.mu.Unlock()

		r.notify()
		r.log.Info("step started", "recipe", r.recipeName, "step", step, "type", act.Type())

		sig := action.NewSignal()
		sig.OnDuplicate(func() {
			metrics.DuplicateCompletions.Inc()
			r.log.Error("action fired its completion signal twice", "step", step, "type", act.Type())
		})

		start := time.Now()
		act.Run(r.ctx, env, sig)

		watchdog := time.NewTimer(r.cfg.Watchdog)
		var out action.Outcome
		select {
		case out = <-sig.Done():
		case <-watchdog.C:
			act.Cancel()
			r.awaitAck(sig)
			out = action.Outcome{
				Kind: action.KindWatchdogExpired,
				Err: action.Errorf(action.KindWatchdogExpired,
					"step %d (%s) exceeded the runner watchdog (%v)", step, act.Type(), r.cfg.Watchdog),
			}
		case <-abort:
			act.Cancel()
			r.awaitAck(sig)
			out = action.Outcome{
				Kind: action.KindAborted,
				Err:  action.Errorf(action.KindAborted, "recipe %q aborted at step %d (%s)", r.recipeName, step, act.Type()),
			}
		}
		watchdog.Stop()

		elapsed := time.Since(start)
		metrics.StepDuration.Observe(elapsed.Seconds())
		metrics.StepsExecuted.WithLabelValues(act.Type(), out.Kind.String()).Inc()
		r.log.Info("step finished", "recipe", r.recipeName, "step", step,
			"type", act.Type(), "status", out.Kind.String(), "elapsed", elapsed)

		if !out.Ok() {
			r.mu.Lock()
			r.finishLocked(out)
			return
		}

		r.mu.Lock()
		if r.seekTo >= 0 && r.seekTo < len(r.steps) {
			r.cursor = r.seekTo
		} else {
			r.cursor++
		}
		r.mu.Unlock()
	}
}

// awaitAck gives a canceled action a bounded window to acknowledge.
func (r *Runner) awaitAck(sig *action.Signal) {
	select {
	case <-sig.Done():
	case <-time.After(r.cfg.AckTimeout):
	}
}

// finishLocked moves the runner to Failed. Caller holds r.mu; the lock
// is released before observers run.
func (r *Runner) finishLocked(out action.Outcome) {
	r.state = StateFailed
	r.lastOut = out
	r.mu.Unlock()
	metrics.RecipeRuns.WithLabelValues(out.Kind.String()).Inc()
	r.log.Error("recipe failed", "recipe", r.recipeName, "kind", out.Kind.String(), "err", out.Err)
	r.notify()
}

func (r *Runner) progressLocked() Progress {
	p := Progress{
		RunID:     r.runID,
		Recipe:    r.recipeName,
		Step:      r.cursor,
		StepCount: len(r.steps),
		State:     r.state,
	}
	if r.cursor < len(r.steps) {
		p.StepType = r.steps[r.cursor].Type()
	}
	if r.lastOut.Kind != action.KindOK {
		p.ErrorKind = r.lastOut.Kind.String()
		if r.lastOut.Err != nil {
			p.Error = r.lastOut.Err.Error()
		}
	}
	return p
}

func (r *Runner) notify() {
	r.mu.Lock()
	p := r.progressLocked()
	observers := make([]func(Progress), len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()
	metrics.RunnerState.Set(float64(p.State))
	for _, fn := range observers {
		fn(p)
	}
}
