// Package builtin provides the stock recipe actions: setpoint and
// shutter commands, rate limits, the wait family, and bounded loops.
// New action kinds register the same way these do; the runner never
// needs to know about them.
package builtin

import "github.com/ebeam-labs/epirun/internal/action"

// Step type names as they appear in recipe files.
const (
	TypeSetpoint          = "SETPOINT"
	TypeRateLimit         = "RATE_LIMIT"
	TypeShutter           = "SHUTTER"
	TypeWaitUntilSetpoint = "WAIT_UNTIL_SETPOINT"
	TypeWaitUntilStable   = "WAIT_UNTIL_STABLE"
	TypeWaitForSeconds    = "WAIT_FOR_SECONDS"
	TypeLoop              = "LOOP"
	TypeEndLoop           = "END_LOOP"
)

// Options tunes defaults the recipe author may omit.
type Options struct {
	// FailureBudget is the default number of consecutive failed polls a
	// wait action tolerates before giving up as hardware-unresponsive.
	FailureBudget int
}

const defaultFailureBudget = 3

func (o Options) failureBudget() int {
	if o.FailureBudget > 0 {
		return o.FailureBudget
	}
	return defaultFailureBudget
}

// Register adds every builtin action to reg.
func Register(reg *action.Registry, opts Options) error {
	entries := []struct {
		name string
		f    action.Factory
	}{
		{TypeSetpoint, func() action.Action { return &Setpoint{} }},
		{TypeRateLimit, func() action.Action { return &RateLimit{} }},
		{TypeShutter, func() action.Action { return &Shutter{} }},
		{TypeWaitUntilSetpoint, func() action.Action { return &WaitUntilSetpoint{opts: opts} }},
		{TypeWaitUntilStable, func() action.Action { return &WaitUntilStable{opts: opts} }},
		{TypeWaitForSeconds, func() action.Action { return &WaitForSeconds{} }},
		{TypeLoop, func() action.Action { return &Loop{} }},
		{TypeEndLoop, func() action.Action { return &EndLoop{} }},
	}
	for _, e := range entries {
		if err := reg.Register(e.name, e.f); err != nil {
			return err
		}
	}
	return nil
}
