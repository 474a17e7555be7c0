package builtin

import (
	"context"
	"testing"

	"github.com/ebeam-labs/epirun/internal/action"
)

func runImmediate(t *testing.T, a action.Action, env *action.Env) action.Outcome {
	t.Helper()
	sig := action.NewSignal()
	a.Run(context.Background(), env, sig)
	select {
	case out := <-sig.Done():
		return out
	default:
		t.Fatal("immediate action did not complete within Run")
		return action.Outcome{}
	}
}

func TestSetpointWrites(t *testing.T) {
	hw := newFakeHW(nil)
	a := &Setpoint{}
	err := a.Configure(map[string]any{
		"targets": map[string]any{"ga_setpoint": 950.0, "as_setpoint": 380},
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	out := runImmediate(t, a, testEnv(hw))
	if out.Kind != action.KindOK {
		t.Fatalf("got %v, want OK", out.Kind)
	}
	if v, _ := hw.written("ga_setpoint"); v != 950 {
		t.Fatalf("ga_setpoint = %v, want 950", v)
	}
	if v, _ := hw.written("as_setpoint"); v != 380 {
		t.Fatalf("as_setpoint = %v, want 380", v)
	}
}

func TestSetpointValidation(t *testing.T) {
	a := &Setpoint{}
	cases := []map[string]any{
		{},
		{"targets": map[string]any{}},
		{"targets": map[string]any{"ch": "hot"}},
		{"targets": map[string]any{"ch": -5.0}},
	}
	for _, params := range cases {
		if err := a.Configure(params); action.KindOf(err) != action.KindInvalidParameter {
			t.Fatalf("params %v: got %v, want InvalidParameter", params, err)
		}
	}
}

func TestRateLimitRejectsNonPositive(t *testing.T) {
	a := &RateLimit{}
	for _, v := range []float64{0, -1} {
		err := a.Configure(map[string]any{"targets": map[string]any{"ch": v}})
		if action.KindOf(err) != action.KindInvalidParameter {
			t.Fatalf("rate %v: got %v, want InvalidParameter", v, err)
		}
	}
	if err := a.Configure(map[string]any{"targets": map[string]any{"ch": 10.0}}); err != nil {
		t.Fatalf("valid rate rejected: %v", err)
	}
}

func TestShutterStates(t *testing.T) {
	hw := newFakeHW(nil)
	a := &Shutter{}
	err := a.Configure(map[string]any{
		"states": map[string]any{"shutter_ga": "OPEN", "shutter_as": "CLOSE"},
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if out := runImmediate(t, a, testEnv(hw)); out.Kind != action.KindOK {
		t.Fatalf("got %v, want OK", out.Kind)
	}
	if v, _ := hw.written("shutter_ga"); v != 1 {
		t.Fatalf("open shutter wrote %v, want 1", v)
	}
	if v, _ := hw.written("shutter_as"); v != 0 {
		t.Fatalf("closed shutter wrote %v, want 0", v)
	}

	err = a.Configure(map[string]any{"states": map[string]any{"shutter_ga": "AJAR"}})
	if action.KindOf(err) != action.KindInvalidParameter {
		t.Fatalf("got %v, want InvalidParameter for bad state", err)
	}
}

func TestLoopConfigureValidation(t *testing.T) {
	a := &Loop{}
	for _, params := range []map[string]any{{}, {"count": 0}, {"count": -2}, {"count": 1.5}} {
		if err := a.Configure(params); action.KindOf(err) != action.KindInvalidParameter {
			t.Fatalf("params %v: got %v, want InvalidParameter", params, err)
		}
	}
	if err := a.Configure(map[string]any{"count": 3}); err != nil {
		t.Fatalf("valid count rejected: %v", err)
	}
}

func TestLoopResetClearsIterationState(t *testing.T) {
	l := &Loop{}
	if err := l.Configure(map[string]any{"count": 3}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	env := testEnv(newFakeHW(nil))

	// First entry consumes one iteration.
	runImmediate(t, l, env)
	if l.remaining != 2 {
		t.Fatalf("after entry: remaining = %d, want 2", l.remaining)
	}

	// Reset must make the next Run a fresh entry, not iteration two.
	l.Reset()
	runImmediate(t, l, env)
	if l.remaining != 2 || l.iteration != 1 {
		t.Fatalf("after reset: remaining = %d, iteration = %d, want a fresh entry (2, 1)",
			l.remaining, l.iteration)
	}
}

func TestEndLoopLinking(t *testing.T) {
	mkLoop := func() *Loop {
		l := &Loop{}
		if err := l.Configure(map[string]any{"count": 2}); err != nil {
			t.Fatalf("loop Configure: %v", err)
		}
		return l
	}
	outer, inner := mkLoop(), mkLoop()
	endInner, endOuter := &EndLoop{}, &EndLoop{}
	steps := []action.Action{outer, inner, endInner, endOuter}
	for i, a := range steps {
		if l, ok := a.(action.StepLinker); ok {
			if err := l.Link(i, steps); err != nil {
				t.Fatalf("Link step %d: %v", i, err)
			}
		}
	}
	if endInner.loop != inner {
		t.Fatal("inner END_LOOP paired with the wrong loop head")
	}
	if endOuter.loop != outer {
		t.Fatal("outer END_LOOP paired with the wrong loop head")
	}
}

func TestEndLoopUnmatched(t *testing.T) {
	end := &EndLoop{}
	err := end.Link(0, []action.Action{end})
	if action.KindOf(err) != action.KindInvalidParameter {
		t.Fatalf("got %v, want InvalidParameter for unmatched END_LOOP", err)
	}
}

func TestRegisterAll(t *testing.T) {
	reg := action.NewRegistry()
	if err := Register(reg, Options{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	want := []string{
		TypeEndLoop, TypeLoop, TypeRateLimit, TypeSetpoint, TypeShutter,
		TypeWaitForSeconds, TypeWaitUntilSetpoint, TypeWaitUntilStable,
	}
	got := reg.Types()
	if len(got) != len(want) {
		t.Fatalf("registered %v, want %v", got, want)
	}
	// Double registration must refuse.
	if err := Register(reg, Options{}); action.KindOf(err) != action.KindDuplicateType {
		t.Fatalf("got %v, want DuplicateType on re-registration", err)
	}
}
