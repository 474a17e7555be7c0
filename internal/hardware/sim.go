package hardware

import (
	"context"
	"sync"
	"time"
)

// Channel describes one simulated channel. A channel with Follows set is
// read-only from the engine's point of view: its value ramps toward the
// followed channel's value at Rate units per second, the way a heated
// cell chases its setpoint. Plain channels just hold whatever was last
// written.
type Channel struct {
	Name    string
	Initial float64
	Follows string
	Rate    float64
}

type simChannel struct {
	follows string
	rate    float64
	value   float64
	at      time.Time
}

// Sim is an in-memory stand-in for the real device layer, used by the
// daemon when no hardware is attached and by the engine tests. Follower
// values are computed lazily from the wall clock, so no background
// goroutine is needed.
type Sim struct {
	// Now is stubbed in tests for deterministic ramps.
	Now func() time.Time

	mu sync.Mutex
	ch map[string]*simChannel
}

// NewSim builds a rig from the channel table.
func NewSim(channels []Channel) *Sim {
	s := &Sim{Now: time.Now, ch: make(map[string]*simChannel, len(channels))}
	now := time.Now()
	for _, c := range channels {
		s.ch[c.Name] = &simChannel{
			follows: c.Follows,
			rate:    c.Rate,
			value:   c.Initial,
			at:      now,
		}
	}
	return s
}

// Set writes a value to a plain channel. Follower channels reject writes;
// their value is physics, not a command.
func (s *Sim) Set(ctx context.Context, channel string, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ch[channel]
	if !ok {
		return unknownChannel(channel)
	}
	if c.follows != "" {
		return unknownChannel(channel + " (read-only follower)")
	}
	c.value = value
	c.at = s.Now()
	return nil
}

// Read returns the channel's current value, advancing follower ramps to
// the present moment first.
func (s *Sim) Read(ctx context.Context, channel string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ch[channel]
	if !ok {
		return 0, unknownChannel(channel)
	}
	if c.follows == "" {
		return c.value, nil
	}
	target, ok := s.ch[c.follows]
	if !ok {
		return 0, unknownChannel(c.follows)
	}
	now := s.Now()
	c.value = approach(c.value, target.value, c.rate, now.Sub(c.at))
	c.at = now
	return c.value, nil
}

// approach moves v toward target at rate units/s over dt, stopping at
// the target rather than overshooting.
func approach(v, target, rate float64, dt time.Duration) float64 {
	if dt <= 0 || rate <= 0 {
		return v
	}
	step := rate * dt.Seconds()
	switch {
	case v < target:
		if v+step >= target {
			return target
		}
		return v + step
	case v > target:
		if v-step <= target {
			return target
		}
		return v - step
	}
	return v
}
