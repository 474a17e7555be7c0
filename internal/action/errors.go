package action

import (
	"errors"
	"fmt"
)

// Kind classifies every way a recipe can be rejected or halted.
type Kind int

const (
	KindOK Kind = iota
	KindInvalidParameter
	KindDuplicateType
	KindUnknownActionType
	KindTimeout
	KindCanceled
	KindHardwareUnresponsive
	KindAborted
	KindWatchdogExpired
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindDuplicateType:
		return "duplicate_type"
	case KindUnknownActionType:
		return "unknown_action_type"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindHardwareUnresponsive:
		return "hardware_unresponsive"
	case KindAborted:
		return "aborted"
	case KindWatchdogExpired:
		return "runner_watchdog_expired"
	case KindFailed:
		return "failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a Kind alongside the usual wrapped error chain.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain. Unclassified errors
// report KindFailed; nil reports KindOK.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindFailed
}
