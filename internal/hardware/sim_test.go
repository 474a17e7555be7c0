package hardware

import (
	"context"
	"errors"
	"testing"
	"time"
)

func rig() *Sim {
	return NewSim([]Channel{
		{Name: "heater", Initial: 20},
		{Name: "heater_temp", Initial: 20, Follows: "heater", Rate: 10},
		{Name: "shutter_ga", Initial: 0},
	})
}

func TestSimSetAndRead(t *testing.T) {
	s := rig()
	ctx := context.Background()

	if err := s.Set(ctx, "heater", 150); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Read(ctx, "heater")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 150 {
		t.Fatalf("heater = %v, want 150", v)
	}
}

func TestSimUnknownChannel(t *testing.T) {
	s := rig()
	ctx := context.Background()

	if err := s.Set(ctx, "flux_capacitor", 1); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("Set unknown: got %v, want ErrUnknownChannel", err)
	}
	if _, err := s.Read(ctx, "flux_capacitor"); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("Read unknown: got %v, want ErrUnknownChannel", err)
	}
}

func TestSimFollowerRejectsWrites(t *testing.T) {
	s := rig()
	if err := s.Set(context.Background(), "heater_temp", 500); err == nil {
		t.Fatal("writing a follower channel must fail")
	}
}

func TestSimFollowerRamp(t *testing.T) {
	s := rig()
	ctx := context.Background()

	// Drive the clock by hand: rate is 10 units/s.
	now := time.Unix(1000, 0)
	s.Now = func() time.Time { return now }

	read := func() float64 {
		t.Helper()
		v, err := s.Read(ctx, "heater_temp")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		return v
	}

	// Prime the follower onto the stubbed clock before setting a target.
	if v := read(); v != 20 {
		t.Fatalf("initial: %v, want 20", v)
	}

	if err := s.Set(ctx, "heater", 120); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(3 * time.Second)
	if v := read(); v != 50 {
		t.Fatalf("after 3s: %v, want 50", v)
	}
	now = now.Add(5 * time.Second)
	if v := read(); v != 100 {
		t.Fatalf("after 8s: %v, want 100", v)
	}
	// Past the point where the ramp would overshoot: clamp at the target.
	now = now.Add(time.Minute)
	if v := read(); v != 120 {
		t.Fatalf("after a minute: %v, want 120 (clamped)", v)
	}

	// Ramps follow the setpoint back down too.
	if err := s.Set(ctx, "heater", 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(time.Second)
	if v := read(); v != 110 {
		t.Fatalf("cooling 1s: %v, want 110", v)
	}
}

func TestSimCanceledContext(t *testing.T) {
	s := rig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, "heater", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("Set: got %v, want context.Canceled", err)
	}
	if _, err := s.Read(ctx, "heater"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Read: got %v, want context.Canceled", err)
	}
}
