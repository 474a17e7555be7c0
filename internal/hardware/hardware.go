// Package hardware is the boundary between the recipe engine and the
// instruments it drives. The engine only ever sets and reads named
// channels; what a channel means (a heater setpoint, a gauge reading,
// a shutter position) is the device layer's business.
package hardware

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned for reads or writes to a channel the
// device layer does not expose.
var ErrUnknownChannel = errors.New("unknown channel")

// Interface is the capability the engine needs from the device layer.
// Both operations may fail or time out; the engine treats errors as
// opaque.
type Interface interface {
	Set(ctx context.Context, channel string, value float64) error
	Read(ctx context.Context, channel string) (float64, error)
}

func unknownChannel(channel string) error {
	return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
}
