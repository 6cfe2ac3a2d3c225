package xr

import "errors"

// SessionContext owns the runtime objects shared by every component of
// one driver. It is created by New and passed by reference to the
// session manager, swapchains, registry, composer and frame loop; none
// of them look runtime state up anywhere else.
type SessionContext struct {
	Runtime Runtime

	Instance   Instance
	System     SystemID
	Session    Session
	LocalSpace Space
	Messenger  DebugMessenger

	ViewType  ViewConfigurationType
	Views     []ViewConfigurationView
	BlendMode EnvironmentBlendMode

	// running is true between a successful begin-session and end-session.
	running bool
}

// ViewCount returns the number of views of the selected configuration.
func (c *SessionContext) ViewCount() int { return len(c.Views) }

// Running reports whether the session has begun and not been ended.
func (c *SessionContext) Running() bool { return c.running }

// ResultString renders a result code, preferring the runtime's own
// rendering once an instance exists.
func (c *SessionContext) ResultString(r Result) string {
	if c.Runtime != nil && c.Instance != 0 {
		if s := c.Runtime.ResultString(c.Instance, r); s != "" {
			return s
		}
	}
	return r.String()
}

// check converts a runtime failure into a *RuntimeError. Errors that
// are already driver errors pass through unchanged.
func (c *SessionContext) check(op string, err error) error {
	if err == nil {
		return nil
	}
	var enumErr *EnumerationError
	if errors.As(err, &enumErr) {
		return err
	}
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		return err
	}
	code := resultOf(err)
	return &RuntimeError{Op: op, Result: code, Text: c.ResultString(code)}
}

// enumerate runs a two-call enumeration: a count query, then a fill
// into a slice of exactly that size. A runtime that reports a larger
// count on the second call yields an *EnumerationError rather than a
// truncated result.
func enumerate[T any](what string, call func([]T) (uint32, error)) ([]T, error) {
	n, err := call(nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	buf := make([]T, n)
	got, err := call(buf)
	if err != nil {
		if resultOf(err) == ErrorSizeInsufficient {
			return nil, &EnumerationError{What: what, Capacity: n, Reported: got}
		}
		return nil, err
	}
	if got > n {
		return nil, &EnumerationError{What: what, Capacity: n, Reported: got}
	}
	return buf[:got], nil
}
